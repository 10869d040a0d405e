package storagegrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/bmarinov/storagegrid-provisioner/internal/s3"
)

// Client bundles the per-resource clients for the StorageGrid tenant
// management API. All operations take the bearer token from a prior
// Authorize call; no session state is held between calls.
type Client struct {
	*AuthClient
	*ContainerClient
	*GroupClient
	*UserClient
	*S3KeyClient
}

func NewClient(apiAddr string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	baseClient := tenantAPIHttpClient{
		httpClient: httpClient,
		baseURL:    apiAddr,
		logger:     logger,
	}

	return &Client{
		AuthClient:      &AuthClient{&baseClient},
		ContainerClient: &ContainerClient{&baseClient},
		GroupClient:     &GroupClient{&baseClient},
		UserClient:      &UserClient{&baseClient},
		S3KeyClient:     &S3KeyClient{&baseClient},
	}
}

type tenantAPIHttpClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func (c *tenantAPIHttpClient) doRequest(ctx context.Context,
	method string,
	path string,
	queryParams *url.Values,
	token string,
	body io.Reader,
) (*http.Response, error) {
	fullURL, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("constructing endpoint path: %w", err)
	}

	requestURL, err := url.Parse(fullURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	if queryParams != nil {
		query := requestURL.Query()
		for k, values := range *queryParams {
			for _, v := range values {
				query.Add(k, v)
			}
		}
		requestURL.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL.String(), body)
	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("storagegrid request", "method", method, "url", requestURL.String())

	return c.httpClient.Do(req)
}

type AuthClient struct {
	*tenantAPIHttpClient
}

// Authorize exchanges tenant root credentials for a bearer token.
func (a *AuthClient) Authorize(ctx context.Context, accountID, username, password string) (string, error) {
	request := authorizeRequest{
		AccountID: accountID,
		Username:  username,
		Password:  password,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	const path = "/api/v3/authorize"
	response, err := a.doRequest(ctx, http.MethodPost, path, nil, "", &buf)
	if err != nil {
		return "", fmt.Errorf("authorize: %w", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authorize: unexpected status code %d", response.StatusCode)
	}

	result, err := unmarshalBody[envelope[string]](response.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s response: %w", path, err)
	}
	if err := result.statusErr("authorize"); err != nil {
		return "", err
	}

	return result.Data, nil
}

type ContainerClient struct {
	*tenantAPIHttpClient
}

// List returns the names of all buckets owned by the tenant.
func (c *ContainerClient) List(ctx context.Context, token string) ([]string, error) {
	const path = "/api/v3/org/containers"

	response, err := c.doRequest(ctx, http.MethodGet, path, nil, token, nil)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list containers: unexpected status code %d", response.StatusCode)
	}

	result, err := unmarshalBody[envelope[[]containerItem]](response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	if err := result.statusErr("list containers"); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(result.Data))
	for _, container := range result.Data {
		names = append(names, container.Name)
	}
	return names, nil
}

func (c *ContainerClient) Create(ctx context.Context, bucket s3.Bucket, token string) error {
	request := containerCreateRequest{
		Name:   bucket.Name,
		Region: bucket.Region,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	const path = "/api/v3/org/containers"
	response, err := c.doRequest(ctx, http.MethodPost, path, nil, token, &buf)
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		return fmt.Errorf("create container: unexpected status code %d", response.StatusCode)
	}

	result, err := unmarshalBody[envelope[containerItem]](response.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}
	return result.statusErr("create container")
}

type GroupClient struct {
	*tenantAPIHttpClient
}

// GetByShortName looks up a group by its short name. A 404 maps to
// s3.ErrGroupNotFound so callers can branch into creation.
func (g *GroupClient) GetByShortName(ctx context.Context, shortName string, token string) (s3.Group, error) {
	path := "/api/v3/org/groups/group/" + url.PathEscape(shortName)

	response, err := g.doRequest(ctx, http.MethodGet, path, nil, token, nil)
	if err != nil {
		return s3.Group{}, fmt.Errorf("get group '%s': %w", shortName, err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode != http.StatusOK {
		if response.StatusCode == http.StatusNotFound {
			return s3.Group{}, fmt.Errorf("%w: short name '%s'", s3.ErrGroupNotFound, shortName)
		}
		return s3.Group{}, fmt.Errorf("get group: unexpected status code %d", response.StatusCode)
	}

	result, err := unmarshalBody[envelope[groupData]](response.Body)
	if err != nil {
		return s3.Group{}, fmt.Errorf("reading group response: %w", err)
	}
	if err := result.statusErr("get group"); err != nil {
		return s3.Group{}, err
	}

	return result.Data.toGroup()
}

func (g *GroupClient) Create(ctx context.Context, displayName, uniqueName string, policies Policies, token string) (s3.Group, error) {
	request := postGroupRequest{
		DisplayName: displayName,
		UniqueName:  uniqueName,
		Policies:    policies,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return s3.Group{}, fmt.Errorf("marshal request: %w", err)
	}

	const path = "/api/v3/org/groups"
	response, err := g.doRequest(ctx, http.MethodPost, path, nil, token, &buf)
	if err != nil {
		return s3.Group{}, fmt.Errorf("create group: %w", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(response.Body)
		return s3.Group{}, fmt.Errorf("create group: unexpected status code %d: %s", response.StatusCode, string(body))
	}

	result, err := unmarshalBody[envelope[groupData]](response.Body)
	if err != nil {
		return s3.Group{}, fmt.Errorf("reading group response: %w", err)
	}
	if err := result.statusErr("create group"); err != nil {
		return s3.Group{}, err
	}

	return result.Data.toGroup()
}

func (d groupData) toGroup() (s3.Group, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return s3.Group{}, fmt.Errorf("group id '%s' is not a uuid: %w", d.ID, err)
	}
	return s3.Group{
		ID:          id,
		UniqueName:  d.UniqueName,
		DisplayName: d.DisplayName,
	}, nil
}

type UserClient struct {
	*tenantAPIHttpClient
}

// GetByShortName looks up a user by its short name. A 404 maps to
// s3.ErrUserNotFound.
func (u *UserClient) GetByShortName(ctx context.Context, shortName string, token string) (s3.User, error) {
	path := "/api/v3/org/users/user/" + url.PathEscape(shortName)

	response, err := u.doRequest(ctx, http.MethodGet, path, nil, token, nil)
	if err != nil {
		return s3.User{}, fmt.Errorf("get user '%s': %w", shortName, err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode != http.StatusOK {
		if response.StatusCode == http.StatusNotFound {
			return s3.User{}, fmt.Errorf("%w: short name '%s'", s3.ErrUserNotFound, shortName)
		}
		return s3.User{}, fmt.Errorf("get user: unexpected status code %d", response.StatusCode)
	}

	result, err := unmarshalBody[envelope[userData]](response.Body)
	if err != nil {
		return s3.User{}, fmt.Errorf("reading user response: %w", err)
	}
	if err := result.statusErr("get user"); err != nil {
		return s3.User{}, err
	}

	return result.Data.toUser()
}

func (u *UserClient) Create(ctx context.Context, uniqueName, fullName string, memberOf []uuid.UUID, token string) (s3.User, error) {
	request := postUserRequest{
		UniqueName: uniqueName,
		FullName:   fullName,
		MemberOf:   uuidStrings(memberOf),
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return s3.User{}, fmt.Errorf("marshal request: %w", err)
	}

	const path = "/api/v3/org/users"
	response, err := u.doRequest(ctx, http.MethodPost, path, nil, token, &buf)
	if err != nil {
		return s3.User{}, fmt.Errorf("create user: %w", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(response.Body)
		return s3.User{}, fmt.Errorf("create user: unexpected status code %d: %s", response.StatusCode, string(body))
	}

	result, err := unmarshalBody[envelope[userData]](response.Body)
	if err != nil {
		return s3.User{}, fmt.Errorf("reading user response: %w", err)
	}
	if err := result.statusErr("create user"); err != nil {
		return s3.User{}, err
	}

	return result.Data.toUser()
}

func (u *UserClient) Patch(ctx context.Context, id uuid.UUID, fullName string, memberOf []uuid.UUID, token string) (s3.User, error) {
	request := patchUserRequest{
		FullName: fullName,
		MemberOf: uuidStrings(memberOf),
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return s3.User{}, fmt.Errorf("marshal request: %w", err)
	}

	path := "/api/v3/org/users/" + id.String()
	response, err := u.doRequest(ctx, http.MethodPatch, path, nil, token, &buf)
	if err != nil {
		return s3.User{}, fmt.Errorf("patch user: %w", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode != http.StatusOK {
		if response.StatusCode == http.StatusNotFound {
			return s3.User{}, fmt.Errorf("patch user: %w for id '%s'", s3.ErrUserNotFound, id)
		}
		body, _ := io.ReadAll(response.Body)
		return s3.User{}, fmt.Errorf("patch user: unexpected status code %d: %s", response.StatusCode, string(body))
	}

	result, err := unmarshalBody[envelope[userData]](response.Body)
	if err != nil {
		return s3.User{}, fmt.Errorf("reading user response: %w", err)
	}
	if err := result.statusErr("patch user"); err != nil {
		return s3.User{}, err
	}

	return result.Data.toUser()
}

// ChangePassword sets the local access password for a user. The management
// API returns no body of interest on success.
func (u *UserClient) ChangePassword(ctx context.Context, id uuid.UUID, password string, token string) error {
	request := passwordChangeRequest{Password: password}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	path := "/api/v3/org/users/" + id.String() + "/change-password"
	response, err := u.doRequest(ctx, http.MethodPost, path, nil, token, &buf)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusNoContent {
		return fmt.Errorf("change password: unexpected status code %d", response.StatusCode)
	}

	return nil
}

func (d userData) toUser() (s3.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return s3.User{}, fmt.Errorf("user id '%s' is not a uuid: %w", d.ID, err)
	}
	memberOf := make([]uuid.UUID, 0, len(d.MemberOf))
	for _, raw := range d.MemberOf {
		groupID, err := uuid.Parse(raw)
		if err != nil {
			return s3.User{}, fmt.Errorf("group id '%s' is not a uuid: %w", raw, err)
		}
		memberOf = append(memberOf, groupID)
	}
	return s3.User{
		ID:         id,
		UniqueName: d.UniqueName,
		FullName:   d.FullName,
		MemberOf:   memberOf,
	}, nil
}

type S3KeyClient struct {
	*tenantAPIHttpClient
}

// CreateAccessKey issues a fresh S3 key pair for the user. Keys are never
// looked up or reused; every call accumulates a new pair server-side.
func (s *S3KeyClient) CreateAccessKey(ctx context.Context, userID uuid.UUID, token string) (s3.AccessKeys, error) {
	path := "/api/v3/org/users/" + userID.String() + "/s3-access-keys"

	response, err := s.doRequest(ctx, http.MethodPost, path, nil, token, bytes.NewBufferString("{}"))
	if err != nil {
		return s3.AccessKeys{}, fmt.Errorf("create s3 access key: %w", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		return s3.AccessKeys{}, fmt.Errorf("create s3 access key: unexpected status code %d", response.StatusCode)
	}

	result, err := unmarshalBody[envelope[accessKeyData]](response.Body)
	if err != nil {
		return s3.AccessKeys{}, fmt.Errorf("reading access key response: %w", err)
	}
	if err := result.statusErr("create s3 access key"); err != nil {
		return s3.AccessKeys{}, err
	}

	return s3.AccessKeys{
		AccessKey:       result.Data.AccessKey,
		SecretAccessKey: result.Data.SecretAccessKey,
	}, nil
}

func (e envelope[T]) statusErr(operation string) error {
	if !strings.EqualFold(e.Status, "error") {
		return nil
	}
	if e.Message != nil && e.Message.Text != "" {
		return fmt.Errorf("%s: api returned error status: %s", operation, e.Message.Text)
	}
	return fmt.Errorf("%s: api returned error status", operation)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func unmarshalBody[T any](body io.ReadCloser) (T, error) {
	var result T
	err := json.NewDecoder(body).Decode(&result)
	return result, err
}
