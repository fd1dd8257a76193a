package license

import (
	"fmt"
	"time"

	"ablecloud-backoffice/pkg/errutil"
)

// InvalidDateRangeError rejects an issued date after the expiry date.
type InvalidDateRangeError struct {
	Issued  time.Time
	Expired time.Time
}

func (e *InvalidDateRangeError) Status() errutil.CoreStatus {
	return errutil.StatusValidationFailed
}

func (e *InvalidDateRangeError) Error() string {
	return fmt.Sprintf("invalid date range: issued %s is after expiry %s",
		e.Issued.Format("2006-01-02"), e.Expired.Format("2006-01-02"))
}
