package s3

import (
	"errors"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID         uuid.UUID
	UniqueName string
	FullName   string
	MemberOf   []uuid.UUID
}

// AccessKeys is a freshly issued S3 credential pair for a user.
type AccessKeys struct {
	AccessKey       string
	SecretAccessKey string
}
