package auth

import (
	"errors"
	"fmt"

	"wyniki/pkg/config"
	"wyniki/pkg/models"
)

// Resolve picks the login for a crawl. A complete login from flags, the
// environment or .env files wins; otherwise the stored account matching the
// configured account ID, or the default stored account, is used.
func Resolve(portal config.PortalConfig, m *Manager) (models.Credentials, error) {
	creds := models.Credentials{AccountID: portal.AccountID, Password: portal.Password}
	if creds.Valid() {
		return creds, nil
	}
	if m == nil {
		return models.Credentials{}, ErrCredentialsNotFound
	}

	var (
		account *Account
		err     error
	)
	if portal.AccountID != "" {
		account, err = m.Retrieve(portal.AccountID)
	} else {
		account, err = m.RetrieveDefault()
	}
	if err != nil {
		if errors.Is(err, ErrCredentialsNotFound) {
			return models.Credentials{}, err
		}
		return models.Credentials{}, fmt.Errorf("failed to read stored credentials: %w", err)
	}
	return account.Credentials(), nil
}
