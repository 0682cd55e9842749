// Package apperr defines the error taxonomy shared by the stores, the stock
// mutation service and the HTTP layer. Callers classify failures with
// errors.Is against the sentinels below; HTTPStatus maps them to responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a referenced medicine, transaction or
	// user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for a bad enum value or an
	// out-of-range quantity.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict is returned when a unique constraint would be violated,
	// e.g. a duplicate barcode on create.
	ErrConflict = errors.New("conflict")

	// ErrInsufficientStock is returned when a withdrawal exceeds the
	// available quantity. Terminal for the request; never retried.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrUnauthorized is returned when the caller is not authenticated.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller's role does not permit the
	// operation.
	ErrForbidden = errors.New("forbidden")

	// ErrStorageUnavailable is returned for transient backing-store
	// failures. Retrying is the caller's decision.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// InsufficientStockError carries the shortfall details for an over-withdrawal.
type InsufficientStockError struct {
	MedicineID uint
	Available  int
	Requested  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for medicine %d: available %d, requested %d",
		e.MedicineID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// HTTPStatus maps an error to the status code the REST surface reports.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether the failure is the caller's fault and should
// not be retried.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound)
}
