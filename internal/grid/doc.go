// Package grid evaluates a scalar function over a Cartesian product of two
// parameter axes using a bounded pool of goroutines.
package grid
