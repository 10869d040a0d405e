package provision

import (
	"errors"
	"fmt"
)

// ErrIntegrationDisabled is returned by the Disabled service for every
// operation when no StorageGrid endpoint is configured.
var ErrIntegrationDisabled = errors.New("storagegrid integration is disabled for this environment")

// IntegrationError signals that the management API responded with a logical
// error or an unexpected status. Operation names the failing remote call.
type IntegrationError struct {
	Operation string
	Err       error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("storagegrid api error on %s: %v", e.Operation, e.Err)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}

func integrationErr(operation string, err error) error {
	return &IntegrationError{Operation: operation, Err: err}
}

// DataError signals a successful remote response missing expected fields.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return e.Reason
}
