// Package generate creates random passwords.
//
// Passwords are drawn from letters and digits, optionally with ASCII
// punctuation, using rejection sampling over a cryptographic random source.
// A failing random source is reported as ErrEntropyUnavailable; there is no
// weaker fallback.
package generate
