package journal

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/stmtimport/internal/model"
)

// ValidationError describes why a transaction cannot be recorded.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidateTransaction checks a transaction before it is staged.
func ValidateTransaction(txn model.NewTransaction) []ValidationError {
	var errs []ValidationError

	if txn.Date.IsZero() {
		errs = append(errs, ValidationError{Field: "date", Message: "missing"})
	}
	if strings.TrimSpace(txn.Payee) == "" {
		errs = append(errs, ValidationError{Field: "payee", Message: "empty"})
	}
	if !txn.Amount.Equal(txn.Amount.Round(2)) {
		errs = append(errs, ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("%s has more than 2 decimal places", txn.Amount.String()),
		})
	}
	return errs
}

func joinValidation(errs []ValidationError) error {
	msgs := make([]string, len(errs))
	for i, ve := range errs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}
