// Package domain contains the core business entities shared by the timer
// registry, the energy ledger and the recommendation engine: tasks,
// categories, priorities, workflow columns and energy transactions.
//
// Everything here is plain data plus validation. State machines and
// accounting rules live in the packages that own that state.
package domain
