package business

import (
	"fmt"

	"ablecloud-backoffice/pkg/errutil"
)

// ConflictingLicenseError rejects deleting a business that still holds a
// live license, or linking a license already bound elsewhere.
type ConflictingLicenseError struct {
	BusinessID string
	LicenseID  string
}

func (e *ConflictingLicenseError) Status() errutil.CoreStatus {
	return errutil.StatusConflict
}

func (e *ConflictingLicenseError) Error() string {
	return fmt.Sprintf("license %s is still linked to business %s; detach it first", e.LicenseID, e.BusinessID)
}
