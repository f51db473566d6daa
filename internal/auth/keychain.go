package auth

import (
	"fmt"

	"github.com/danieljoos/wincred"
)

// SecretStore looks up secrets by id.
type SecretStore interface {
	GetSecret(id string) (string, error)
}

// SecretManager is a SecretStore that can also write and delete entries.
type SecretManager interface {
	SecretStore
	SetSecret(id, secret string) error
	RemoveSecret(id string) error
}

// Keychain handles secure storage of credentials in the OS credential store.
type Keychain struct {
	prefix string
}

// NewKeychain creates a new keychain manager.
func NewKeychain(prefix string) *Keychain {
	return &Keychain{prefix: prefix}
}

func (k *Keychain) target(id string) string {
	return fmt.Sprintf("%s:%s", k.prefix, id)
}

// SetSecret stores a secret in the credential store.
func (k *Keychain) SetSecret(id, secret string) error {
	cred := wincred.NewGenericCredential(k.target(id))
	cred.CredentialBlob = []byte(secret)
	cred.Persist = wincred.PersistLocalMachine
	return cred.Write()
}

// GetSecret retrieves a secret from the credential store.
func (k *Keychain) GetSecret(id string) (string, error) {
	cred, err := wincred.GetGenericCredential(k.target(id))
	if err != nil {
		return "", fmt.Errorf("keychain %s: %w", k.target(id), err)
	}
	return string(cred.CredentialBlob), nil
}

// RemoveSecret deletes a secret from the credential store.
func (k *Keychain) RemoveSecret(id string) error {
	cred, err := wincred.GetGenericCredential(k.target(id))
	if err != nil {
		return err
	}
	return cred.Delete()
}
