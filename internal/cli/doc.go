// Package cli builds the recipegrid command tree. It turns flags and an
// optional config file into a validated app.Config and maps failures to
// process exit codes.
package cli
