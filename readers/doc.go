// Package readers turns raw HAR dataset trees into normalized records.
//
// Every source supplies only discovery and parsing. Alignment, windowing,
// label resolution and quality filtering run in one shared engine driven by
// the source's Policy. A session that cannot be read is reported in
// Result.Sessions and never aborts the rest of the dataset.
package readers
