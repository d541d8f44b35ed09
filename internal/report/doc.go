// Package report renders a domain's run history as a Markdown document.
//
// Templates are Go text/template with the sprig function library plus a
// few run helpers (runTitle, lastRun, status, scalars, nested). The
// built-in template can be replaced with a user file.
package report
