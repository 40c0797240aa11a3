// Package util holds small parsing and validation helpers shared by the
// server, the CLI and the startup summary.
package util
