// Package dtype converts between stored HDF5 elements and Go values.
//
// Conversion is driven by the datatype message: fixed point and floating
// point elements of any byte order decode into any Go numeric slice,
// strings decode from fixed or variable-length storage, and compound
// elements decode into maps keyed by member name. Variable-length data is
// resolved through a [Strings] implementation; [NewHeapStrings] resolves
// it from global heap collections.
//
// Encoding goes the other way: [GoTypeToDatatype] picks a datatype for a
// Go type, and the encoders pack Go values as little-endian elements.
package dtype
