// Package results implements persistence for run records.
//
// The FileRepository stores each record as a protobuf Struct rendered with
// protojson, one file per run, so any JSON reader can consume the output.
package results
