// Package timer implements the registry of concurrently running task timers.
//
// Each task being worked on owns one Entry. Running entries advance by one
// second per tick and accrue earnings from the hourly rate resolved when the
// run started. A single goroutine per Registry drives the ticks; it starts on
// the first transition to running and exits by itself once nothing is running.
//
// Calls to the external session endpoint are submitted as background jobs so
// that no registry operation ever waits on the network.
package timer
