package model

// Account is a ledger account transactions are imported into.
type Account struct {
	ID   string
	Name string
}
