// Package session persists the signed-in device session for companion
// tooling in the operating system keyring, so the session cookie never
// lands in a plaintext config file.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/99designs/keyring"
)

const (
	serviceName = "fieldtasks"
	slotKey     = "fieldtasks-session"
)

// Session is the locally cached sign-in state for one device.
type Session struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Cookie    string    `json:"cookie"`
	PushToken string    `json:"push_token,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
}

// Store holds at most one session in the system keyring.
type Store struct {
	ring keyring.Keyring
}

// New opens the system keyring for the default service.
func New() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/fieldtasks/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("fieldtasks-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// NewWithRing wraps an existing keyring, used by tests with an in-memory
// backend.
func NewWithRing(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Save replaces the stored session.
func (s *Store) Save(sess Session) error {
	if sess.SavedAt.IsZero() {
		sess.SavedAt = time.Now().UTC()
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.ring.Set(keyring.Item{Key: slotKey, Data: data}); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Load returns the stored session, or nil when none is stored.
func (s *Store) Load() (*Session, error) {
	item, err := s.ring.Get(slotKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(item.Data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &sess, nil
}

// Clear removes the stored session. Clearing an empty slot is not an
// error.
func (s *Store) Clear() error {
	err := s.ring.Remove(slotKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
