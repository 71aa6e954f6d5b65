// Command pixly watches screenshot folders, organizes new screenshots into a
// dated category tree, and searches their text.
//
// `pixly start` runs the daemon in the foreground. The remaining commands
// (scan, search, stats, recent, status, config) work directly against the
// configuration file and the local database, so they do not need a running
// daemon; status additionally reports a running daemon through its
// dashboard API.
package main
