package keyring

import (
	"errors"
	"fmt"

	"github.com/illarion/lockpass/internal/secret"
	"github.com/zalando/go-keyring"
)

const serviceName = "lockpass"

var ErrNotFound = errors.New("no master password in keyring")

// SavePassword stores the master password of a vault in the OS keyring
func SavePassword(vaultID string, password *secret.Buffer) error {
	if err := keyring.Set(serviceName, vaultID, password.String()); err != nil {
		return fmt.Errorf("failed to save password to keyring: %w", err)
	}
	return nil
}

// GetPassword retrieves the master password of a vault from the OS keyring
func GetPassword(vaultID string) (*secret.Buffer, error) {
	password, err := keyring.Get(serviceName, vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}
	return secret.FromString(password), nil
}

// DeletePassword removes the master password of a vault from the OS keyring
func DeletePassword(vaultID string) error {
	err := keyring.Delete(serviceName, vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}

// HasPassword checks if a password is stored in the keyring
func HasPassword(vaultID string) bool {
	_, err := keyring.Get(serviceName, vaultID)
	return err == nil
}
