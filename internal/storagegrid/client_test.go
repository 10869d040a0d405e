package storagegrid

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/bmarinov/storagegrid-provisioner/internal/s3"
)

func TestAuthClient(t *testing.T) {
	t.Run("returns token from envelope", func(t *testing.T) {
		var gotBody map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v3/authorize" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "" {
				t.Error("authorize must not carry a bearer token")
			}
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			writeEnvelope(w, "success", "token-abc")
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).AuthClient
		token, err := sut.Authorize(t.Context(), "123", "root", "pw")
		if err != nil {
			t.Fatal(err)
		}
		if token != "token-abc" {
			t.Errorf("unexpected token: %s", token)
		}
		if gotBody["accountId"] != "123" || gotBody["username"] != "root" || gotBody["password"] != "pw" {
			t.Errorf("unexpected request body: %v", gotBody)
		}
	})

	t.Run("envelope error status fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, "error", "")
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).AuthClient
		_, err := sut.Authorize(t.Context(), "123", "root", "pw")
		if err == nil {
			t.Fatal("expected error for envelope status")
		}
	})
}

func TestContainerClient(t *testing.T) {
	t.Run("lists container names with bearer token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer token-1" {
				t.Errorf("missing bearer token, got '%s'", r.Header.Get("Authorization"))
			}
			writeEnvelope(w, "success", []containerItem{{Name: "bucket-1"}, {Name: "bucket-2"}})
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).ContainerClient
		names, err := sut.List(t.Context(), "token-1")
		if err != nil {
			t.Fatal(err)
		}
		if len(names) != 2 || names[0] != "bucket-1" || names[1] != "bucket-2" {
			t.Errorf("unexpected names: %v", names)
		}
	})

	t.Run("create sends name and region", func(t *testing.T) {
		var gotBody map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method %s", r.Method)
			}
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			writeEnvelope(w, "success", containerItem{Name: gotBody["name"]})
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).ContainerClient
		err := sut.Create(t.Context(), s3.Bucket{Name: "bucket-1", Region: "us-east-1"}, "token-1")
		if err != nil {
			t.Fatal(err)
		}
		if gotBody["name"] != "bucket-1" || gotBody["region"] != "us-east-1" {
			t.Errorf("unexpected body: %v", gotBody)
		}
	})
}

func TestGroupClient(t *testing.T) {
	groupID := uuid.New()

	t.Run("get by short name", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v3/org/groups/group/bucket-1-path-test-R" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			writeEnvelope(w, "success", groupData{
				ID:          groupID.String(),
				UniqueName:  "group/bucket-1-path-test-R",
				DisplayName: "bucket-1-path-test-R",
			})
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).GroupClient
		group, err := sut.GetByShortName(t.Context(), "bucket-1-path-test-R", "token-1")
		if err != nil {
			t.Fatal(err)
		}
		if group.ID != groupID {
			t.Errorf("unexpected id: %s", group.ID)
		}
		if group.UniqueName != "group/bucket-1-path-test-R" {
			t.Errorf("unexpected unique name: %s", group.UniqueName)
		}
	})

	t.Run("404 maps to not-found sentinel", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).GroupClient
		_, err := sut.GetByShortName(t.Context(), "missing", "token-1")
		if !errors.Is(err, s3.ErrGroupNotFound) {
			t.Errorf("expected ErrGroupNotFound, got %v", err)
		}
	})

	t.Run("create posts policy document", func(t *testing.T) {
		var gotRequest postGroupRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&gotRequest)
			writeEnvelope(w, "success", groupData{
				ID:          groupID.String(),
				UniqueName:  gotRequest.UniqueName,
				DisplayName: gotRequest.DisplayName,
			})
		}))
		defer server.Close()

		policies := Policies{S3: PolicyS3{Statement: []PolicyStatement{{
			Effect:   EffectAllow,
			Action:   []string{"s3:GetObject"},
			Resource: []string{"arn:aws:s3:::bucket-1/path/*"},
		}}}}

		sut := NewClient(server.URL, nil, nil).GroupClient
		group, err := sut.Create(t.Context(), "display", "group/short", policies, "token-1")
		if err != nil {
			t.Fatal(err)
		}
		if group.ID != groupID {
			t.Errorf("unexpected id: %s", group.ID)
		}
		if len(gotRequest.Policies.S3.Statement) != 1 {
			t.Fatalf("policy statements not transmitted: %+v", gotRequest.Policies)
		}
		if gotRequest.Policies.S3.Statement[0].Action[0] != "s3:GetObject" {
			t.Errorf("unexpected action: %v", gotRequest.Policies.S3.Statement[0].Action)
		}
	})

	t.Run("malformed group id fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, "success", groupData{ID: "not-a-uuid"})
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).GroupClient
		_, err := sut.GetByShortName(t.Context(), "g", "token-1")
		if err == nil {
			t.Fatal("expected error for malformed id")
		}
	})
}

func TestUserClient(t *testing.T) {
	userID := uuid.New()
	groupID := uuid.New()

	t.Run("404 maps to not-found sentinel", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).UserClient
		_, err := sut.GetByShortName(t.Context(), "missing", "token-1")
		if !errors.Is(err, s3.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("create transmits membership", func(t *testing.T) {
		var gotRequest postUserRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&gotRequest)
			writeEnvelope(w, "success", userData{
				ID:         userID.String(),
				UniqueName: gotRequest.UniqueName,
				FullName:   gotRequest.FullName,
				MemberOf:   gotRequest.MemberOf,
			})
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).UserClient
		user, err := sut.Create(t.Context(), "user/username", "username", []uuid.UUID{groupID}, "token-1")
		if err != nil {
			t.Fatal(err)
		}
		if user.ID != userID {
			t.Errorf("unexpected id: %s", user.ID)
		}
		if len(gotRequest.MemberOf) != 1 || gotRequest.MemberOf[0] != groupID.String() {
			t.Errorf("unexpected memberOf: %v", gotRequest.MemberOf)
		}
	})

	t.Run("patch hits user resource path", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch {
				t.Errorf("unexpected method %s", r.Method)
			}
			if r.URL.Path != "/api/v3/org/users/"+userID.String() {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			writeEnvelope(w, "success", userData{ID: userID.String()})
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).UserClient
		_, err := sut.Patch(t.Context(), userID, "username", []uuid.UUID{groupID}, "token-1")
		if err != nil {
			t.Fatal(err)
		}
	})

	t.Run("change password ignores response body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v3/org/users/"+userID.String()+"/change-password" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).UserClient
		if err := sut.ChangePassword(t.Context(), userID, "pw", "token-1"); err != nil {
			t.Fatal(err)
		}
	})
}

func TestS3KeyClient(t *testing.T) {
	userID := uuid.New()

	t.Run("creates fresh keys", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v3/org/users/"+userID.String()+"/s3-access-keys" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			writeEnvelope(w, "success", accessKeyData{
				ID:              "key-1",
				AccessKey:       "AKIA123",
				SecretAccessKey: "secret123",
			})
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).S3KeyClient
		keys, err := sut.CreateAccessKey(t.Context(), userID, "token-1")
		if err != nil {
			t.Fatal(err)
		}
		if keys.AccessKey != "AKIA123" || keys.SecretAccessKey != "secret123" {
			t.Errorf("unexpected keys: %+v", keys)
		}
	})

	t.Run("envelope error status fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, "error", accessKeyData{})
		}))
		defer server.Close()

		sut := NewClient(server.URL, nil, nil).S3KeyClient
		_, err := sut.CreateAccessKey(t.Context(), userID, "token-1")
		if err == nil {
			t.Fatal("expected error for envelope status")
		}
	})
}

func writeEnvelope(w http.ResponseWriter, status string, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"data":   data,
	})
}
