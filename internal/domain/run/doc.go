// Package run contains the record of one simulation run: who started it,
// when, with which parameters and what it produced.
//
// Records are dictionary shaped so that any command can attach its own named
// parameters and results without changing the persistence layer.
package run
