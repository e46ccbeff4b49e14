// Package job runs fire-and-forget background work, such as notifying the
// external session endpoint, on a small pool of worker goroutines so that
// timer operations never block on network calls.
package job
