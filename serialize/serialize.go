// Package serialize renders a record.Record as bytes for a sink to write.
// Three implementations are provided: JSON (machine-oriented), Pretty
// (colored, human-oriented terminal output) and Compact (minimal
// single-line, for high-volume production streams).
package serialize

import "github.com/vidinsight-labs/microlog/record"

// Serializer turns one Record into its wire/display form. A Serializer
// must never return an error for a well-formed Record; values it cannot
// natively represent degrade to their string form rather than aborting
// the call (spec §4.4: "a serializer never fails the emit path").
type Serializer interface {
	Serialize(r record.Record) []byte
}
