// Package superblock reads and writes the HDF5 superblock, the structure
// at the start of a file that fixes field widths and locates the root group.
//
// Versions 0 to 3 are read. Versions 0 and 1 locate the root through a
// symbol table entry, the later versions through the root object header
// address. Versions 2 and 3 are written.
package superblock
