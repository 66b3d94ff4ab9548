// Package loop provides the driver loop that enumerates keyspace values
// into the target field.
//
// A Loop draws values from a session.Progress, writes each one through a
// field.Interactor and optionally submits it, while polling a
// control.Machine for pause and stop requests. Each Loop runs once; the
// supervisor creates a fresh Loop for every start or reset and cancels the
// previous one first.
package loop
