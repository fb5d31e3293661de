// Package encodingstats compares an encoded file with its source and prints
// the size reduction.
package encodingstats
