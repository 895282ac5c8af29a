// Package btree walks version 1 B-trees: the group indexes of files with
// a v0 or v1 superblock and the chunk indexes of layout messages before
// version 4.
//
// A node is either a leaf or an internal node. Group nodes (type 0) point
// at symbol table nodes whose entries name children through the local
// heap. Chunk nodes (type 1) carry one key per child: the chunk size, the
// filter mask and the element offset of the chunk in every dimension.
//
// # Key Types
//
//   - [ReadGroupEntries]: every link of a symbol table group
//   - [ReadChunkIndex]: every allocated chunk of a chunked dataset
package btree
