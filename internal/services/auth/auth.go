// Package auth stores backend session tokens in the OS keychain.
package auth

import (
	"errors"

	"nathanbeddoewebdev/dockctl/internal/util"
)

const ServiceName = "dockctl"

var ErrTokenNotFound = errors.New("auth token not found")

// Store persists one token per account. The account is the backend's base
// URL, so several backends can be logged in side by side.
type Store interface {
	SetToken(account string, token string) error
	GetToken(account string) (string, error)
	DeleteToken(account string) error
}

// DefaultStore returns the standard auth store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

// NormalizeAccount normalizes an account name for consistent key lookup.
func NormalizeAccount(account string) string {
	return util.NormalizeURLKey(account)
}
