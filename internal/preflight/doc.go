// Package preflight provides readiness checks for the programs, services,
// and filesystem paths that Pixly depends on.
//
// RunAll is used by the daemon before it starts watching and by the CLI
// status command. A result marked Fatal means processing must not start;
// other failures are reported and processing continues in a degraded mode
// (an unreadable monitored folder is skipped, low disk space is a warning).
// CheckAIConnectivity performs a live call and is only used on demand.
package preflight
