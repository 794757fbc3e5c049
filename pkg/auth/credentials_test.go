package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
	"wyniki/pkg/config"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{AccountID: "4020001", Password: "tajne-haslo-123"}
	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}
	if account.LastModified.IsZero() {
		t.Error("Store should stamp LastModified")
	}

	retrieved, err := manager.Retrieve("4020001")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch: got %s, want %s", retrieved.Password, account.Password)
	}

	creds := retrieved.Credentials()
	if creds.AccountID != "4020001" || creds.Password != account.Password {
		t.Errorf("Credentials mismatch: %+v", creds)
	}

	sanitized := SanitizeAccount(account)
	if sanitized.Password == account.Password {
		t.Error("Password should be masked")
	}
	if sanitized.AccountID != account.AccountID {
		t.Error("Account ID should not be masked")
	}

	if err := manager.Delete("4020001"); err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}
	if _, err := manager.Retrieve("4020001"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
	if err := manager.Delete("4020001"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Deleting a missing account should report not found, got %v", err)
	}
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Account{Password: "x"}); err == nil {
		t.Error("Expected error for missing account ID")
	}
	if err := manager.Store(&Account{AccountID: "1"}); err == nil {
		t.Error("Expected error for missing password")
	}
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	fallback := NewMockStore()
	manager := NewManagerWithStores(broken, fallback)

	if err := manager.Store(&Account{AccountID: "1", Password: "pw"}); err != nil {
		t.Fatalf("Store should fall back: %v", err)
	}
	if !fallback.Exists("1") {
		t.Error("Account should land in the fallback store")
	}
}

func TestRetrieveDefaultPrefersEnvironment(t *testing.T) {
	t.Setenv(envAccountID, "env-account")
	t.Setenv(envPassword, "env-password")

	store := NewMockStore()
	_ = store.Store(&Account{AccountID: "stored", Password: "pw"})
	manager := NewManagerWithStores(store, NewEnvironmentStore())

	account, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("RetrieveDefault failed: %v", err)
	}
	if account.AccountID != "env-account" {
		t.Errorf("Expected environment account, got %s", account.AccountID)
	}
}

func TestRetrieveDefaultPicksNewest(t *testing.T) {
	t.Setenv(envAccountID, "")
	t.Setenv(envPassword, "")

	store := NewMockStore()
	now := time.Now()
	_ = store.Store(&Account{AccountID: "a", Password: "pw", LastModified: now.Add(-time.Hour)})
	_ = store.Store(&Account{AccountID: "b", Password: "pw", LastModified: now})
	manager := NewManagerWithStores(store, NewEnvironmentStore())

	account, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("RetrieveDefault failed: %v", err)
	}
	if account.AccountID != "b" {
		t.Errorf("Expected newest account b, got %s", account.AccountID)
	}

	accounts, _ := manager.List()
	if len(accounts) != 2 || accounts[0].AccountID != "a" {
		t.Errorf("List should be sorted by account ID: %+v", accounts)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.enc")

	store, err := NewEncryptedFileStoreWithPassphrase(path, "test_passphrase_123")
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{AccountID: "4020001", Password: "plaintext-secret"}
	if err := store.Store(account); err != nil {
		t.Fatalf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("4020001")
	if err != nil {
		t.Fatalf("Failed to retrieve from encrypted file: %v", err)
	}
	if retrieved.Password != account.Password {
		t.Error("Password mismatch after encryption/decryption")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(content, []byte("plaintext-secret")) {
		t.Error("File contains plaintext password")
	}

	other, err := NewEncryptedFileStoreWithPassphrase(path, "wrong passphrase")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Retrieve("4020001"); err == nil {
		t.Error("Expected decryption to fail with the wrong passphrase")
	}

	if err := store.Delete("4020001"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("File should be removed with the last account")
	}
}

func TestEncryptedFileStoreUsesPassphraseFromEnvironment(t *testing.T) {
	t.Setenv(envPassphrase, "from-env")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Store(&Account{AccountID: "1", Password: "pw"}); err != nil {
		t.Fatal(err)
	}

	same, _ := NewEncryptedFileStoreWithPassphrase(path, "from-env")
	if !same.Exists("1") {
		t.Error("Store keyed by the same passphrase should read the account")
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv(envAccountID, "env-account")
	t.Setenv(envPassword, "env-password")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if account.AccountID != "env-account" || account.Password != "env-password" {
		t.Errorf("Unexpected account: %+v", account)
	}
	if _, err := store.Retrieve("someone-else"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Error("A different account ID should not match the environment")
	}
	if err := store.Store(&Account{}); !errors.Is(err, ErrStoreUnavailable) {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	if err != nil {
		t.Fatalf("Mock keyring should be available: %v", err)
	}

	for _, id := range []string{"b", "a", "b"} {
		if err := store.Store(&Account{AccountID: id, Password: "pw-" + id}); err != nil {
			t.Fatalf("Store %s failed: %v", id, err)
		}
	}

	accounts, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("Expected 2 indexed accounts, got %d", len(accounts))
	}

	if err := store.Delete("b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Exists("b") {
		t.Error("Deleted account should not exist")
	}
	if err := store.Delete("b"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}

	accounts, _ = store.List()
	if len(accounts) != 1 || accounts[0].Password != "pw-a" {
		t.Errorf("Unexpected accounts after delete: %+v", accounts)
	}
}

func TestResolve(t *testing.T) {
	manager, store := NewMockManager()
	_ = store.Store(&Account{AccountID: "stored", Password: "stored-pw"})

	creds, err := Resolve(config.PortalConfig{AccountID: "cli", Password: "env-pw"}, manager)
	if err != nil || creds.AccountID != "cli" {
		t.Errorf("Complete login from config should win: %+v %v", creds, err)
	}

	creds, err = Resolve(config.PortalConfig{AccountID: "stored"}, manager)
	if err != nil || creds.Password != "stored-pw" {
		t.Errorf("Stored account should fill the password: %+v %v", creds, err)
	}

	_, err = Resolve(config.PortalConfig{AccountID: "unknown"}, manager)
	if !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}

	_, err = Resolve(config.PortalConfig{}, nil)
	if !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound without a manager, got %v", err)
	}
}

func TestShowLoginGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowLoginGuide(&buf)
	if !strings.Contains(buf.String(), "WYNIKI_PASSWORD") {
		t.Error("Guide should name the password variable")
	}
}

func TestMockStoreErrorInjection(t *testing.T) {
	store := NewMockStore()
	store.ListError = errors.New("injected error")
	if _, err := store.List(); err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}
