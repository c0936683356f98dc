// Package catalog holds the product data model shared by every other package:
// products, the attribute schema, categories and the error taxonomy used to
// tell "no matches" apart from "the store could not answer".
//
// # Attributes
//
// Product attributes are sparse string values keyed by AttrName. The Schema
// is the single source of truth for which names exist, their display labels
// and their Kind. Kind drives sanitization on write (see Schema.Sanitize) and
// formatting in the render package.
//
//	schema := catalog.DefaultSchema()
//	attr, ok := schema.Lookup("vendor_name")
//	clean, err := schema.Sanitize(attr.Name, "  ACME <b>Corp</b> ")
//
// # Values
//
// Projections expose attribute values as Value, which keeps presence apart
// from emptiness. An absent value marshals to JSON null, a present empty one
// to "". Choosing a display glyph for absent values is left to renderers.
package catalog
