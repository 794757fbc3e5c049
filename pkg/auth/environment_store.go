package auth

import (
	"os"
	"time"
)

const (
	envAccountID = "WYNIKI_USERNAME"
	envPassword  = "WYNIKI_PASSWORD"
)

// EnvironmentStore reads the login from WYNIKI_USERNAME and WYNIKI_PASSWORD,
// which .env files loaded at startup may have set
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment login; a non-empty accountID must match it
func (e *EnvironmentStore) Retrieve(accountID string) (*Account, error) {
	id := os.Getenv(envAccountID)
	password := os.Getenv(envPassword)

	if id == "" || password == "" {
		return nil, ErrCredentialsNotFound
	}
	if accountID != "" && accountID != id {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		AccountID:    id,
		Password:     password,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(accountID string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(accountID string) bool {
	_, err := e.Retrieve(accountID)
	return err == nil
}
