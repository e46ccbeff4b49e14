// Package ledger implements the bounded mental-energy ledger.
//
// The ledger owns the current energy balance, the daily expenditure used for
// limit checks, weekly aggregates, and a short log of recent transactions.
// All mutations go through Apply, which serializes callers, clamps the balance
// into [0, max] and notifies subscribers once the change is committed.
package ledger
