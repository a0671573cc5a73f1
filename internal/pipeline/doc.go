// Package pipeline runs the dataset load and boundary join once per input
// state and hands the immutable result to readers.
package pipeline
