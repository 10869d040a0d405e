package provision

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/bmarinov/storagegrid-provisioner/internal/s3"
	"github.com/bmarinov/storagegrid-provisioner/internal/storagegrid"
)

// Service is the provisioning surface exposed to the HTTP layer. Every
// operation except Authorize and ProvisionUserPolicies requires the bearer
// token obtained from Authorize.
type Service interface {
	Authorize(ctx context.Context, payload AuthorizationPayload) (string, error)
	ProvideBucket(ctx context.Context, bucketName string, token string) (string, error)
	ProvideGroup(ctx context.Context, bucketName, path string, access []Access, token string) (uuid.UUID, error)
	ProvideUser(ctx context.Context, username string, groupID uuid.UUID, token string) (uuid.UUID, error)
	AssignPassword(ctx context.Context, userID uuid.UUID, password string, token string) (string, error)
	ProvideS3AccessKeys(ctx context.Context, userID uuid.UUID, token string) (s3.AccessKeys, error)
	ProvisionUserPolicies(ctx context.Context, bucketName, path string, payload ProvisionUserPoliciesPayload) (ProvisionUserPoliciesResponse, error)
}

type AuthAPI interface {
	Authorize(ctx context.Context, accountID, username, password string) (string, error)
}

type ContainerAPI interface {
	List(ctx context.Context, token string) ([]string, error)
	Create(ctx context.Context, bucket s3.Bucket, token string) error
}

type GroupAPI interface {
	GetByShortName(ctx context.Context, shortName string, token string) (s3.Group, error)
	Create(ctx context.Context, displayName, uniqueName string, policies storagegrid.Policies, token string) (s3.Group, error)
}

type UserAPI interface {
	GetByShortName(ctx context.Context, shortName string, token string) (s3.User, error)
	Create(ctx context.Context, uniqueName, fullName string, memberOf []uuid.UUID, token string) (s3.User, error)
	Patch(ctx context.Context, id uuid.UUID, fullName string, memberOf []uuid.UUID, token string) (s3.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, password string, token string) error
}

type S3KeyAPI interface {
	CreateAccessKey(ctx context.Context, userID uuid.UUID, token string) (s3.AccessKeys, error)
}

// APIs groups the management API clients the service depends on.
type APIs struct {
	Auth       AuthAPI
	Containers ContainerAPI
	Groups     GroupAPI
	Users      UserAPI
	S3Keys     S3KeyAPI
}

// ClientAPIs adapts the composite storagegrid client.
func ClientAPIs(c *storagegrid.Client) APIs {
	return APIs{
		Auth:       c.AuthClient,
		Containers: c.ContainerClient,
		Groups:     c.GroupClient,
		Users:      c.UserClient,
		S3Keys:     c.S3KeyClient,
	}
}

type Options struct {
	// S3Endpoint is the static S3 host returned to callers; it is not derived
	// from provisioning.
	S3Endpoint string
	// BucketRegion is passed through on bucket creation.
	BucketRegion string
	// RandomPassword selects generated passwords over DefaultPassword when the
	// request carries none.
	RandomPassword  bool
	DefaultPassword string
}

type StorageGridService struct {
	api    APIs
	opts   Options
	logger *slog.Logger
}

func NewStorageGridService(api APIs, opts Options, logger *slog.Logger) *StorageGridService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageGridService{
		api:    api,
		opts:   opts,
		logger: logger,
	}
}

var _ Service = (*StorageGridService)(nil)

func (s *StorageGridService) Authorize(ctx context.Context, payload AuthorizationPayload) (string, error) {
	token, err := s.api.Auth.Authorize(ctx, payload.AccountID, payload.Username, payload.Password)
	if err != nil {
		return "", integrationErr("authorize", err)
	}
	return token, nil
}

// ProvideBucket ensures the bucket exists for the tenant. The name is
// returned unchanged; the operation is an identity from the caller's view.
func (s *StorageGridService) ProvideBucket(ctx context.Context, bucketName string, token string) (string, error) {
	names, err := s.api.Containers.List(ctx, token)
	if err != nil {
		return "", integrationErr("list containers", err)
	}

	if !slices.Contains(names, bucketName) {
		bucket := s3.Bucket{Name: bucketName, Region: s.opts.BucketRegion}
		if err := s.api.Containers.Create(ctx, bucket, token); err != nil {
			return "", integrationErr("create container", err)
		}
		s.logger.Info("created bucket", "bucket", bucketName)
	}

	return bucketName, nil
}

// ProvideGroup ensures a group exists for the (bucket, path, access)
// combination. An existing group with the derived unique name is reused
// as-is; its policy is never recomputed.
func (s *StorageGridService) ProvideGroup(ctx context.Context, bucketName, path string, access []Access, token string) (uuid.UUID, error) {
	names := groupNamesFor(bucketName, path, access)

	group, err := s.api.Groups.GetByShortName(ctx, names.Short, token)
	switch {
	case errors.Is(err, s3.ErrGroupNotFound):
		// fall through to creation
	case err != nil:
		return uuid.Nil, integrationErr("get group", err)
	case group.UniqueName == names.Unique:
		return group.ID, nil
	}

	created, err := s.api.Groups.Create(ctx, names.Display, names.Unique, buildGroupPolicy(bucketName, path, access), token)
	if err != nil {
		return uuid.Nil, integrationErr("create group", err)
	}
	s.logger.Info("created group", "group", names.Short)

	return created.ID, nil
}

// ProvideUser ensures the user exists and is a member of the group. Existing
// memberships are never removed; the target group is unioned in.
func (s *StorageGridService) ProvideUser(ctx context.Context, username string, groupID uuid.UUID, token string) (uuid.UUID, error) {
	uniqueName := "user/" + username

	user, err := s.api.Users.GetByShortName(ctx, username, token)
	switch {
	case errors.Is(err, s3.ErrUserNotFound):
		created, err := s.api.Users.Create(ctx, uniqueName, username, []uuid.UUID{groupID}, token)
		if err != nil {
			return uuid.Nil, integrationErr("create user", err)
		}
		s.logger.Info("created user", "user", username)
		return created.ID, nil
	case err != nil:
		return uuid.Nil, integrationErr("get user", err)
	case user.UniqueName != uniqueName:
		created, err := s.api.Users.Create(ctx, uniqueName, username, []uuid.UUID{groupID}, token)
		if err != nil {
			return uuid.Nil, integrationErr("create user", err)
		}
		return created.ID, nil
	}

	memberOf := unionMembership(user.MemberOf, groupID)
	if _, err := s.api.Users.Patch(ctx, user.ID, username, memberOf, token); err != nil {
		return uuid.Nil, integrationErr("patch user", err)
	}

	return user.ID, nil
}

// unionMembership collapses duplicates and adds groupID, preserving the
// order of existing memberships.
func unionMembership(existing []uuid.UUID, groupID uuid.UUID) []uuid.UUID {
	memberOf := make([]uuid.UUID, 0, len(existing)+1)
	for _, id := range existing {
		if !slices.Contains(memberOf, id) {
			memberOf = append(memberOf, id)
		}
	}
	if !slices.Contains(memberOf, groupID) {
		memberOf = append(memberOf, groupID)
	}
	return memberOf
}

// AssignPassword sets the user's password and returns it. An explicit
// non-empty password is used verbatim; otherwise one is generated or the
// configured default applies.
func (s *StorageGridService) AssignPassword(ctx context.Context, userID uuid.UUID, password string, token string) (string, error) {
	newPassword := password
	if newPassword == "" {
		if s.opts.RandomPassword {
			newPassword = newRandomPassword()
		} else {
			newPassword = s.opts.DefaultPassword
		}
	}

	if err := s.api.Users.ChangePassword(ctx, userID, newPassword, token); err != nil {
		return "", integrationErr("change password", err)
	}

	return newPassword, nil
}

func (s *StorageGridService) ProvideS3AccessKeys(ctx context.Context, userID uuid.UUID, token string) (s3.AccessKeys, error) {
	keys, err := s.api.S3Keys.CreateAccessKey(ctx, userID, token)
	if err != nil {
		return s3.AccessKeys{}, integrationErr("create s3 access key", err)
	}
	if keys.AccessKey == "" || keys.SecretAccessKey == "" {
		return s3.AccessKeys{}, &DataError{Reason: "did not get s3 access keys"}
	}
	return keys, nil
}

// ProvisionUserPolicies runs the full pipeline. Stages are strictly
// sequential; the first failure aborts the request and nothing already
// created is rolled back.
func (s *StorageGridService) ProvisionUserPolicies(ctx context.Context, bucketName, path string, payload ProvisionUserPoliciesPayload) (ProvisionUserPoliciesResponse, error) {
	token, err := s.Authorize(ctx, payload.TenantAccount)
	if err != nil {
		return ProvisionUserPoliciesResponse{}, err
	}

	if _, err := s.ProvideBucket(ctx, bucketName, token); err != nil {
		return ProvisionUserPoliciesResponse{}, err
	}

	groupID, err := s.ProvideGroup(ctx, bucketName, path, payload.Access, token)
	if err != nil {
		return ProvisionUserPoliciesResponse{}, err
	}

	userID, err := s.ProvideUser(ctx, payload.Username, groupID, token)
	if err != nil {
		return ProvisionUserPoliciesResponse{}, err
	}

	password, err := s.AssignPassword(ctx, userID, payload.Password, token)
	if err != nil {
		return ProvisionUserPoliciesResponse{}, err
	}

	keys, err := s.ProvideS3AccessKeys(ctx, userID, token)
	if err != nil {
		return ProvisionUserPoliciesResponse{}, err
	}

	s.logger.Info("provisioned user policies",
		"bucket", bucketName, "path", path, "user", payload.Username)

	return ProvisionUserPoliciesResponse{
		Username:          payload.Username,
		Password:          password,
		Host:              s.opts.S3Endpoint,
		S3AccessKey:       keys.AccessKey,
		S3SecretAccessKey: keys.SecretAccessKey,
	}, nil
}

// Disabled satisfies Service for deployments without a configured
// StorageGrid integration. Every operation fails with a fixed message.
type Disabled struct{}

var _ Service = Disabled{}

func (Disabled) Authorize(context.Context, AuthorizationPayload) (string, error) {
	return "", ErrIntegrationDisabled
}

func (Disabled) ProvideBucket(context.Context, string, string) (string, error) {
	return "", ErrIntegrationDisabled
}

func (Disabled) ProvideGroup(context.Context, string, string, []Access, string) (uuid.UUID, error) {
	return uuid.Nil, ErrIntegrationDisabled
}

func (Disabled) ProvideUser(context.Context, string, uuid.UUID, string) (uuid.UUID, error) {
	return uuid.Nil, ErrIntegrationDisabled
}

func (Disabled) AssignPassword(context.Context, uuid.UUID, string, string) (string, error) {
	return "", ErrIntegrationDisabled
}

func (Disabled) ProvideS3AccessKeys(context.Context, uuid.UUID, string) (s3.AccessKeys, error) {
	return s3.AccessKeys{}, ErrIntegrationDisabled
}

func (Disabled) ProvisionUserPolicies(context.Context, string, string, ProvisionUserPoliciesPayload) (ProvisionUserPoliciesResponse, error) {
	return ProvisionUserPoliciesResponse{}, ErrIntegrationDisabled
}
