// Package log is a small wrapper around the standard library logger that
// gives every component of the catalog service its own named logger.
//
// Each line carries the component in a `[name>]` prefix, which keeps logs
// grep friendly when several components share one output:
//
//	2024/05/02 10:11:12.123456 INFO [paging>] page 3 of and(status=published, title~"x"): 50 ids, total 312
//
// Levels are Info, Warn, Error and Debug. Debug lines are dropped unless
// debug is enabled globally (SetDebug, wired to the --debug flag) or for the
// component (EnableDebug, wired to the CATALOG_DEBUG environment variable).
//
//	l := log.For("storage")
//	l.Infof("opened %s", path)
//	l.Debugf("sql: %s", stmt)
//
// SetOutput redirects every existing and future logger, which is how tests
// capture output. All functions are safe for concurrent use.
package log
