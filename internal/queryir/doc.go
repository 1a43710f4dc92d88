// Package queryir defines an abstract query over the blocks of stored
// documents.
//
// A query selects blocks, in layout order, from the latest revision of one
// or all documents and filters them on their block data. It is independent
// of the storage backend; package querysql compiles it to SQLite.
//
// # Example
//
//	queryir.Blocks{
//	    Filter: queryir.And{Predicates: []queryir.Predicate{
//	        queryir.Equals{Field: "@type", Value: ir.IRString("image")},
//	        queryir.Exists{Field: "url"},
//	    }},
//	}
//
// finds every image block that has a url.
//
// # Restrictions
//
// Predicates compare top-level fields of block data with scalar values.
// Arrays and objects cannot be compared, and a comparison with null never
// matches; use Exists for presence. Check reports queries that break these
// rules before they reach a backend.
package queryir
