// Package cli implements the command-line interface for moviepost.
//
// The cli package provides the Cobra-based CLI. It loads configuration, builds the
// store, metadata chain and publishers, and runs the Telegram bot (bot), the web app
// (web), or both in one process (serve). The post and lookup commands publish or
// preview a single entry from the shell.
package cli
