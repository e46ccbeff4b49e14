// Package service contains the application use cases. Workflow coordinates
// the timer registry, the energy ledger and the impact calculator so that
// starting, moving and completing a task charge or reward energy
// consistently, whichever delivery mechanism calls it.
//
// The service depends on small interfaces over the registry and ledger,
// never on the HTTP layer or on a storage implementation.
package service
