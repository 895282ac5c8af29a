// Package filter runs the HDF5 chunk filter pipeline. Filters apply in
// pipeline order on write and in reverse on read.
//
// # Filters
//
//   - deflate (ID 1): zlib streams, see [Deflate]
//   - shuffle (ID 2): byte planes grouped by position, see [Shuffle]
//   - fletcher32 (ID 3): a trailing checksum per chunk, see [Fletcher32]
//
// szip, nbit and scaleoffset are known by name only. A pipeline that
// requires one cannot be built; an optional one is dropped.
//
// # Filter Mask
//
// Each stored chunk carries a mask. Bit i set means filter i was skipped
// when the chunk was written, so [Pipeline.Decode] skips it too.
package filter
