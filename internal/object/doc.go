// Package object reads and writes HDF5 object headers, the message lists
// behind every group and dataset.
//
// [Read] accepts version 1 and version 2 headers and follows continuation
// blocks. Version 2 checksums are verified: a bad first block fails the
// read, a bad continuation block is skipped.
//
// [Write] always produces a version 2 header with a single chunk.
package object
