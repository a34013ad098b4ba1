package auth

import (
	"context"
	"errors"

	userstore "github.com/gcnet/fieldtasks/internal/app/store/users"
	"github.com/gcnet/fieldtasks/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is the uniform rejection for every authentication
// failure: unknown username, wrong password, or inactive account. Callers
// cannot tell the cases apart; the verifier logs the real reason at debug
// level for auditing.
var ErrInvalidCredentials = errors.New("invalid username or password")

// dummyHash is compared against when the username does not resolve, so an
// unknown user costs the same as a wrong password.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Verifier checks a username/password pair against the user store.
// It never mutates stored state.
type Verifier struct {
	users *userstore.Store
	log   *zap.Logger
}

func NewVerifier(users *userstore.Store, logger *zap.Logger) *Verifier {
	return &Verifier{users: users, log: logger}
}

// Authenticate returns the full user record on a match. All failure modes
// collapse to ErrInvalidCredentials except storage faults, which propagate
// as-is so callers can distinguish "definitely rejected" from "unknown".
func (v *Verifier) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := v.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			v.log.Debug("auth rejected: unknown username", zap.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		v.log.Debug("auth rejected: password mismatch", zap.String("username", u.Username))
		return nil, ErrInvalidCredentials
	}

	if !u.Active {
		v.log.Debug("auth rejected: inactive account", zap.String("username", u.Username))
		return nil, ErrInvalidCredentials
	}

	return u, nil
}
