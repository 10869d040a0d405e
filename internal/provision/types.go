package provision

import (
	"fmt"
	"strings"
)

// Access is a single grant from the request vocabulary. An empty access list
// on a request means full access (read, write and delete).
type Access string

const (
	AccessRead   Access = "READ"
	AccessWrite  Access = "WRITE"
	AccessDelete Access = "DELETE"
)

func ParseAccess(raw string) (Access, error) {
	switch Access(strings.ToUpper(raw)) {
	case AccessRead:
		return AccessRead, nil
	case AccessWrite:
		return AccessWrite, nil
	case AccessDelete:
		return AccessDelete, nil
	}
	return "", fmt.Errorf("unknown access grant '%s'", raw)
}

// AuthorizationPayload carries tenant root credentials, used only to obtain a
// bearer token.
type AuthorizationPayload struct {
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type ProvisionUserPoliciesPayload struct {
	TenantAccount AuthorizationPayload `json:"tenantAccount"`
	Username      string               `json:"username"`
	Password      string               `json:"password,omitempty"`
	Access        []Access             `json:"access"`
}

type ProvisionUserPoliciesResponse struct {
	Username          string `json:"username"`
	Password          string `json:"password"`
	Host              string `json:"host"`
	S3AccessKey       string `json:"s3accesskey"`
	S3SecretAccessKey string `json:"s3secretaccesskey"`
}
