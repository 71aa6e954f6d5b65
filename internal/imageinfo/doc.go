// Package imageinfo decodes screenshot files and extracts the metadata the
// pipeline records: dimensions, size, and the EXIF capture time when present.
package imageinfo
