package model

// Action is the outcome decided for a parsed transaction.
type Action string

const (
	ActionImport Action = "import"
	ActionSkip   Action = "skip"
	ActionFailed Action = "failed" // ledger rejected the creation
)

// ImportDecision pairs a transaction with what the import does with it.
type ImportDecision struct {
	Transaction ParsedTransaction
	Action      Action
	Reason      string // set for skip and failed
}
