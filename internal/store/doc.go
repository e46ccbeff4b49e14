// Package store defines the persistence boundaries used by the engine.
//
// KVStore is the small string key/value contract that timer and ledger
// snapshots are written through. SessionStore is the record store behind
// the reference session endpoint. Implementations live under
// internal/platform; MemoryKV is provided here for tests and for running
// without durable state.
package store
