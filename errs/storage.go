package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrStorage      = errors.New("blob storage failure")
	ErrMailDelivery = errors.New("mail delivery failed")
)

func NewStorageError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrStorage,
		Details:    fmt.Sprintf("Failed to %s", operation),
		Cause:      cause,
	}
}

func NewMailDeliveryError(details string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrMailDelivery,
		Details:    details,
		Cause:      cause,
	}
}

func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}
