// Package heap reads the local heaps that hold old style group member names
// and reads and writes global heap collections of variable-length data.
//
// A local heap is one contiguous data segment addressed by offset. A
// global heap collection holds numbered objects; variable-length elements
// refer to them by collection address and index.
//
// # Key Types
//
//   - [LocalHeap]: a parsed local heap and its string lookup
//   - [GlobalHeap]: a parsed collection
//   - [GlobalHeapWriter]: collects objects and writes one collection
package heap
