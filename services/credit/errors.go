package credit

import (
	"fmt"

	"ablecloud-backoffice/pkg/errutil"
)

// InsufficientCreditError rejects a reservation that would drive the
// partner's available balance negative. It carries both sides of the
// comparison for display in the admin UI.
type InsufficientCreditError struct {
	Available int64
	Requested int64
}

func (e *InsufficientCreditError) Status() errutil.CoreStatus {
	return errutil.StatusUnprocessableEntity
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("insufficient credit: requested %d cores but only %d available", e.Requested, e.Available)
}
