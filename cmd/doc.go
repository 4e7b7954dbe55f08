// Package cmd implements the command-line interface of mkv. It runs commands
// against an in-process pool and prints the replies.
//
// The package is organized into several subpackages:
//
//   - kv: Commands to run single command lines or whole scripts (exec, eval, commands)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set with environment variables of the form MKV_<flag>
// (e.g. MKV_LOG_LEVEL=debug) or in a .env / .env.local file.
//
// See mkv -help for a list of all commands.
package cmd
