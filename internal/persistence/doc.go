// Package persistence saves and restores engine state through a
// store.KVStore so that it survives process restarts.
//
// Timer snapshots hold only live (running or paused) timers. On load, a
// running timer is credited with the whole seconds that passed since it was
// saved, so elapsed time is neither lost nor counted twice. Malformed data is
// never fatal: it is logged, removed, and replaced by fresh state.
package persistence
