// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
//
// The Collector hooks into the engine's lifecycle callbacks; parley has no
// listener, so metrics are exported by writing a Prometheus text file at the
// end of a run (node_exporter textfile collector format).
package metrics
