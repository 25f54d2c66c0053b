package apiclient

import (
	"fmt"
	"net/url"
	"time"
)

// Repository describes a repository known to the engine.
type Repository struct {
	Name        string            `json:"name"`
	SourceName  string            `json:"source_name"`
	Options     map[string]string `json:"options,omitempty"`
	Descriptors map[string]string `json:"descriptors,omitempty"`
	Live        bool              `json:"live"`
}

// Session is an open session against a repository.
type Session struct {
	SessionID  string `json:"session_id"`
	Repository string `json:"repository"`
}

// Lock is a held lock within a session.
type Lock struct {
	LockID    string    `json:"lock_id"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Health is the engine health report.
type Health struct {
	State string   `json:"state"`
	Live  []string `json:"live,omitempty"`
}

type lockRequest struct {
	Key string `json:"key"`
}

// ListRepositories returns the names of all configured repositories.
func (c *Client) ListRepositories() ([]string, error) {
	var names []string
	if err := c.get("/api/v1/repositories", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// GetRepository returns the resolved definition of a repository
// without constructing it.
func (c *Client) GetRepository(name string) (*Repository, error) {
	var repo Repository
	if err := c.get("/api/v1/repositories/"+url.PathEscape(name), &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// GetNamespaces returns the current namespace bindings of a repository.
func (c *Client) GetNamespaces(name string) (map[string]string, error) {
	var bindings map[string]string
	path := fmt.Sprintf("/api/v1/repositories/%s/namespaces", url.PathEscape(name))
	if err := c.get(path, &bindings); err != nil {
		return nil, err
	}
	return bindings, nil
}

// CreateSession opens a session against a repository, constructing the
// repository on first use.
func (c *Client) CreateSession(repository string) (*Session, error) {
	var session Session
	path := fmt.Sprintf("/api/v1/repositories/%s/sessions", url.PathEscape(repository))
	if err := c.post(path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CloseSession closes an open session and releases its locks.
func (c *Client) CloseSession(repository, sessionID string) error {
	path := fmt.Sprintf("/api/v1/repositories/%s/sessions/%s",
		url.PathEscape(repository), url.PathEscape(sessionID))
	return c.delete(path, nil)
}

// AcquireLock acquires a lock on a key within a session.
func (c *Client) AcquireLock(repository, sessionID, key string) (*Lock, error) {
	var lock Lock
	path := fmt.Sprintf("/api/v1/repositories/%s/sessions/%s/locks",
		url.PathEscape(repository), url.PathEscape(sessionID))
	if err := c.post(path, lockRequest{Key: key}, &lock); err != nil {
		return nil, err
	}
	return &lock, nil
}

// RefreshLock extends the expiry of a held lock.
func (c *Client) RefreshLock(repository, sessionID, lockID string) error {
	path := fmt.Sprintf("/api/v1/repositories/%s/sessions/%s/locks/%s/refresh",
		url.PathEscape(repository), url.PathEscape(sessionID), url.PathEscape(lockID))
	return c.post(path, nil, nil)
}

// ReleaseLock releases a held lock.
func (c *Client) ReleaseLock(repository, sessionID, lockID string) error {
	path := fmt.Sprintf("/api/v1/repositories/%s/sessions/%s/locks/%s",
		url.PathEscape(repository), url.PathEscape(sessionID), url.PathEscape(lockID))
	return c.delete(path, nil)
}

// Healthz returns the liveness state of the server.
func (c *Client) Healthz() (*Health, error) {
	var health Health
	if err := c.get("/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Ready returns the readiness state of the server. An engine that is
// not running reports an error with status 503.
func (c *Client) Ready() (*Health, error) {
	var health Health
	if err := c.get("/health/ready", &health); err != nil {
		return nil, err
	}
	return &health, nil
}
