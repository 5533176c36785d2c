// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package secrets_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tally-dev/tally/internal/secrets"
	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

// fakeStore is an in-memory Store for tests.
type fakeStore struct {
	values map[string]string
}

func (f *fakeStore) Store(service, key, value string) error {
	f.values[service+"/"+key] = value
	return nil
}

func (f *fakeStore) Retrieve(service, key string) (string, error) {
	val, ok := f.values[service+"/"+key]
	if !ok {
		return "", tallyerr.Errorf(tallyerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	return val, nil
}

func (f *fakeStore) Delete(service, key string) error {
	delete(f.values, service+"/"+key)
	return nil
}

func TestParseKeyringURI(t *testing.T) {
	service, key, err := secrets.ParseKeyringURI("keyring://tally/openai-api-key")
	require.NoError(t, err)
	assert.Equal(t, "tally", service)
	assert.Equal(t, "openai-api-key", key)
}

func TestParseKeyringURIMalformed(t *testing.T) {
	for _, uri := range []string{
		"keyring://",
		"keyring://only-service",
		"keyring:///missing-service",
		"keyring://service/",
		"plain-value",
	} {
		_, _, err := secrets.ParseKeyringURI(uri)
		assert.Error(t, err, uri)
	}
}

func TestResolveKeyringURIPassthrough(t *testing.T) {
	store := &fakeStore{values: map[string]string{}}

	val, err := secrets.ResolveKeyringURI(store, "sk-plain-api-key")
	require.NoError(t, err)
	assert.Equal(t, "sk-plain-api-key", val)
}

func TestResolveKeyringURIResolves(t *testing.T) {
	store := &fakeStore{values: map[string]string{"tally/openai-api-key": "sk-secret"}}

	val, err := secrets.ResolveKeyringURI(store, "keyring://tally/openai-api-key")
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", val)
}

func TestResolveKeyringURIMissing(t *testing.T) {
	store := &fakeStore{values: map[string]string{}}

	_, err := secrets.ResolveKeyringURI(store, "keyring://tally/absent")
	require.Error(t, err)
	assert.True(t, tallyerr.HasCode(err, tallyerr.CodeSecretResolveFailure))
}

func TestResolveViperSecrets(t *testing.T) {
	store := &fakeStore{values: map[string]string{"tally/openai-api-key": "sk-secret"}}

	v := viper.New()
	v.Set("embedding.api_key", "keyring://tally/openai-api-key")
	v.Set("embedding.provider", "openai")
	v.Set("server.listen", "127.0.0.1:8461")

	secrets.ResolveViperSecrets(v, store)

	assert.Equal(t, "sk-secret", v.GetString("embedding.api_key"))
	assert.Equal(t, "openai", v.GetString("embedding.provider"))
}

func TestResolveViperSecretsKeepsUnresolvable(t *testing.T) {
	store := &fakeStore{values: map[string]string{}}

	v := viper.New()
	v.Set("embedding.api_key", "keyring://tally/absent")

	secrets.ResolveViperSecrets(v, store)

	assert.Equal(t, "keyring://tally/absent", v.GetString("embedding.api_key"))
}
