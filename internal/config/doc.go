// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional YAML file. It provides type-safe
// access to the settings needed by the timer registry, the energy ledger,
// persistence, and the HTTP surfaces, while keeping configuration details
// separate from business logic.
package config
