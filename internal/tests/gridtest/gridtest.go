// Package gridtest provides an in-memory fake of the StorageGrid tenant
// management API for tests. It covers the subset of endpoints the
// provisioner uses and keeps per-tenant state across calls so idempotency
// can be exercised.
package gridtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const Token = "gridtest-token"

type Group struct {
	ID          string         `json:"id"`
	UniqueName  string         `json:"uniqueName"`
	DisplayName string         `json:"displayName"`
	Policies    map[string]any `json:"policies"`
}

type User struct {
	ID         string   `json:"id"`
	UniqueName string   `json:"uniqueName"`
	FullName   string   `json:"fullName"`
	MemberOf   []string `json:"memberOf"`
}

// Environment is a running fake management API. Terminate the server with
// Close when done.
type Environment struct {
	Server *httptest.Server

	mu        sync.Mutex
	buckets   []string
	groups    map[string]Group // by short name
	users     map[string]User  // by short name
	passwords map[string]string
	keyCount  int
}

func NewEnv() *Environment {
	env := &Environment{
		groups:    map[string]Group{},
		users:     map[string]User{},
		passwords: map[string]string{},
	}
	env.Server = httptest.NewServer(http.HandlerFunc(env.handle))
	return env
}

func (e *Environment) Close() {
	e.Server.Close()
}

func (e *Environment) URL() string {
	return e.Server.URL
}

// Buckets returns the tenant's bucket names.
func (e *Environment) Buckets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.buckets...)
}

// GroupByShortName returns a stored group and whether it exists.
func (e *Environment) GroupByShortName(shortName string) (Group, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	group, ok := e.groups[shortName]
	return group, ok
}

// UserByShortName returns a stored user and whether it exists.
func (e *Environment) UserByShortName(shortName string) (User, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	user, ok := e.users[shortName]
	return user, ok
}

// PasswordFor returns the last password assigned to the user id.
func (e *Environment) PasswordFor(userID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.passwords[userID]
}

// IssuedKeyCount reports how many S3 key pairs have been created.
func (e *Environment) IssuedKeyCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.keyCount
}

func (e *Environment) handle(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api/v3")
	switch {
	case r.Method == http.MethodPost && path == "/authorize":
		writeData(w, Token)

	case path == "/org/containers":
		if r.Header.Get("Authorization") != "Bearer "+Token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodGet {
			type container struct {
				Name string `json:"name"`
			}
			containers := make([]container, 0, len(e.buckets))
			for _, name := range e.buckets {
				containers = append(containers, container{Name: name})
			}
			writeData(w, containers)
			return
		}
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		e.buckets = append(e.buckets, body.Name)
		writeData(w, body)

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/org/groups/group/"):
		shortName := strings.TrimPrefix(path, "/org/groups/group/")
		group, ok := e.groups[shortName]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeData(w, group)

	case r.Method == http.MethodPost && path == "/org/groups":
		var group Group
		_ = json.NewDecoder(r.Body).Decode(&group)
		group.ID = uuid.NewString()
		e.groups[strings.TrimPrefix(group.UniqueName, "group/")] = group
		writeData(w, group)

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/org/users/user/"):
		shortName := strings.TrimPrefix(path, "/org/users/user/")
		user, ok := e.users[shortName]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeData(w, user)

	case r.Method == http.MethodPost && path == "/org/users":
		var user User
		_ = json.NewDecoder(r.Body).Decode(&user)
		user.ID = uuid.NewString()
		e.users[strings.TrimPrefix(user.UniqueName, "user/")] = user
		writeData(w, user)

	case r.Method == http.MethodPatch && strings.HasPrefix(path, "/org/users/"):
		id := strings.TrimPrefix(path, "/org/users/")
		var body struct {
			FullName string   `json:"fullName"`
			MemberOf []string `json:"memberOf"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for shortName, user := range e.users {
			if user.ID == id {
				user.FullName = body.FullName
				user.MemberOf = body.MemberOf
				e.users[shortName] = user
				writeData(w, user)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/change-password"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/org/users/"), "/change-password")
		var body struct {
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		e.passwords[id] = body.Password
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/s3-access-keys"):
		e.keyCount++
		writeData(w, map[string]string{
			"id":              fmt.Sprintf("key-%d", e.keyCount),
			"accessKey":       fmt.Sprintf("AKIAGRIDTEST%04d", e.keyCount),
			"secretAccessKey": uuid.NewString(),
		})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   data,
	})
}
