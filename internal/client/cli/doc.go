// Package cli implements the interactive teamkeeper client.
//
// The App restores the stored session on start, polls the server's gRPC
// health endpoint to show whether it is online, and runs a small REPL over
// the auth workflow and the team commands. Prompts read from stdin and
// passwords are read without echo.
package cli
