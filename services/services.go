// Package services holds the tender lifecycle core: the tender state machine,
// the notification dispatch engine, the standstill gate, contract generation
// and the question/answer and complaint sub-workflows. Services are thin
// orchestrations over a store.Store; all of them take the caller's
// models.SessionContext explicitly.
package services

import (
	"errors"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/apperrors"
)

// storeErr passes NotFound through untouched and wraps everything else the
// store returns as a StoreFailure, so raw driver errors never cross a
// service boundary.
func storeErr(op string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return apperrors.Store(op, err)
}

// IsStandstillEnded reports whether the standstill gate between award and
// contract generation has cleared. The boundary is inclusive: at exactly the
// end date the gate is open.
func IsStandstillEnded(now, end time.Time) bool {
	return !now.Before(end)
}
