// Package recommend ranks kanban tasks by what the current energy balance can
// afford. It only reads the ledger snapshot it is given and never changes
// ledger or timer state.
package recommend
