// Package dedup detects near-duplicate screenshots with a 64-bit perceptual
// hash. Two images whose hashes differ in at most five bits are duplicates;
// the later one is flagged in the store and linked to the earlier record.
package dedup
