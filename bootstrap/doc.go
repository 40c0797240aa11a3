// Package bootstrap runs the lifecycle shared by the research binaries:
// start registered components, run configure callbacks and hooks, print a
// startup summary, then either wait for a signal (Run) or execute a finite
// task (RunTask) before shutting down in reverse order.
package bootstrap
