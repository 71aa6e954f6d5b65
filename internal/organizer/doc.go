// Package organizer names screenshots and moves them into the library.
//
// Files land in <screenshots_dir>/<year>/<month>/<category>/ as
// Screenshot_<year>_<Mon>_<day>_<description>.<ext>. Name collisions get
// numeric suffixes _2 through _101 and then a short hash suffix. Resolution
// and the move happen under a per-directory lock, and the move itself never
// replaces an existing file, so the source is either fully placed or left
// untouched.
package organizer
