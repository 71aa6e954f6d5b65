// Package ocr extracts text from screenshots with an adaptive strategy.
//
// Large images are first fitted inside 1920x1080. The engine then runs on
// the image as-is; while confidence stays under the configured minimum,
// grayscale, contrast, sharpen and threshold passes are applied one after
// another (each on top of the previous) and extraction is retried. The
// highest-confidence attempt wins, together with the steps that produced it.
package ocr
