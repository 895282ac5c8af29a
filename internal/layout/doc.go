// Package layout moves dataset elements between memory and the compact,
// contiguous and chunked storage classes.
//
// Every class implements [Layout]: a full read and a hyperslab read given
// start and count per dimension. Unallocated storage reads as the fill
// value.
//
// # Chunk Indexes
//
// Chunked datasets locate their chunks through a v1 B-tree, a single chunk
// record, an implicit index or a fixed array. Version 2 B-tree and
// extensible array indexes are not read.
//
// # Writing
//
// [ChunkWriter] splits a dataset into chunks, runs them through the filter
// pipeline and returns the layout message with its index.
package layout
