// Package app contains the application layer of recipegrid. It owns the
// configuration, the logger and the series store, and runs recipes for the
// command line (files and directories) and for the HTTP server, decoupled
// from any specific entrypoint.
package app
