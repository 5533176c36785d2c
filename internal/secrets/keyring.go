// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"

	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

// KeyringStore implements Store using the OS keyring via zalando/go-keyring.
// On macOS it uses Keychain, on Linux secret-service (D-Bus), and on Windows
// the Credential Manager.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := validateRef(service, key); err != nil {
		return err
	}

	if err := keyring.Set(service, key, value); err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}
	return nil
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := validateRef(service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", tallyerr.Errorf(tallyerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", tallyerr.Wrapf(err, tallyerr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := validateRef(service, key); err != nil {
		return err
	}

	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return tallyerr.Errorf(tallyerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return tallyerr.Wrapf(err, tallyerr.CodeSecretStoreFailure, "deleting secret %s/%s", service, key)
	}
	return nil
}

func validateRef(service, key string) error {
	if service == "" {
		return tallyerr.New(tallyerr.CodeSecretInvalidInput, "secret store: service must not be empty")
	}
	if key == "" {
		return tallyerr.New(tallyerr.CodeSecretInvalidInput, "secret store: key must not be empty")
	}
	return nil
}
