// Package tesseract runs the tesseract CLI in TSV mode and turns its word
// rows back into text plus a mean confidence score.
package tesseract
