// Package sink provides destinations for generated text artifacts: files
// in a directory chosen from a list of candidates, or keys in Redis.
package sink
