package s3

import (
	"errors"

	"github.com/google/uuid"
)

var ErrGroupNotFound = errors.New("group not found")

// Group is a tenant group as known to the management API. UniqueName is the
// machine-stable identifier ("group/<shortName>"), DisplayName the
// human-readable one.
type Group struct {
	ID          uuid.UUID
	UniqueName  string
	DisplayName string
}
