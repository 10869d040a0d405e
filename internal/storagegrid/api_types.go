package storagegrid

// Every management API response wraps its payload in an envelope carrying a
// status discriminator. A transport-level 200 with status "error" is still a
// failed call.
type envelope[T any] struct {
	Status  string      `json:"status"`
	Data    T           `json:"data"`
	Message *apiMessage `json:"message,omitempty"`
}

type apiMessage struct {
	Text string `json:"text"`
}

type authorizeRequest struct {
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type containerItem struct {
	Name string `json:"name"`
}

type containerCreateRequest struct {
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

type groupData struct {
	ID          string   `json:"id"`
	UniqueName  string   `json:"uniqueName"`
	DisplayName string   `json:"displayName"`
	Policies    Policies `json:"policies"`
}

type postGroupRequest struct {
	DisplayName string   `json:"displayName"`
	UniqueName  string   `json:"uniqueName"`
	Policies    Policies `json:"policies"`
}

// Policies is the policy document attached to a tenant group. Statement keys
// follow the AWS policy grammar the S3 subsystem expects.
type Policies struct {
	S3 PolicyS3 `json:"s3"`
}

type PolicyS3 struct {
	Statement []PolicyStatement `json:"Statement"`
}

type PolicyStatement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

const EffectAllow = "Allow"

type userData struct {
	ID         string   `json:"id"`
	UniqueName string   `json:"uniqueName"`
	FullName   string   `json:"fullName"`
	MemberOf   []string `json:"memberOf"`
}

type postUserRequest struct {
	UniqueName string   `json:"uniqueName"`
	FullName   string   `json:"fullName"`
	MemberOf   []string `json:"memberOf"`
}

type patchUserRequest struct {
	FullName string   `json:"fullName"`
	MemberOf []string `json:"memberOf"`
}

type passwordChangeRequest struct {
	Password string `json:"password"`
}

type accessKeyData struct {
	ID              string `json:"id"`
	AccessKey       string `json:"accessKey"`
	SecretAccessKey string `json:"secretAccessKey"`
}
