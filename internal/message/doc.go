// Package message parses and serializes the header messages that make up
// HDF5 object headers: dataspaces, datatypes, layouts, filter pipelines,
// fill values, attributes, links and the v1 group pointers.
//
// [Parse] decodes one message body by type. Types the package does not
// model come back as [Unknown] with their raw bytes, so headers survive a
// read even when they carry messages nothing here understands.
//
// Messages that can be written implement [Serializable]. Their sizes are
// measured by running the same encoder against a counting writer.
package message
