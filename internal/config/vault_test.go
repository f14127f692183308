package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgap/internal/errors"
)

type fakeReader map[string]*api.Secret

func (f fakeReader) Read(path string) (*api.Secret, error) {
	if path == "broken" {
		return nil, fmt.Errorf("permission denied")
	}
	return f[path], nil
}

func kv2(data map[string]any, version any) *api.Secret {
	return &api.Secret{Data: map[string]any{
		"data":     data,
		"metadata": map[string]any{"version": version},
	}}
}

func newFakeVault(secrets fakeReader) *VaultClient {
	return &VaultClient{reader: secrets, logger: errors.NewNopLogger()}
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestApplyGeminiKeyToConfig(t *testing.T) {
	config := &Config{AI: AIConfig{Narrative: OperationAIConfig{APIKey: "existing-narrative-key"}}}

	applyGeminiKeyToConfig(config, "vault-key")

	assert.Equal(t, "vault-key", config.AI.APIKey)
	assert.Equal(t, "existing-narrative-key", config.AI.Narrative.APIKey)
	assert.Equal(t, "vault-key", config.AI.Embedding.APIKey)
}

func TestResolveVaultToken(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token\n"), 0600))

	token, err := resolveVaultToken(VaultConfig{Token: "direct"})
	require.NoError(t, err)
	assert.Equal(t, "direct", token)

	token, err = resolveVaultToken(VaultConfig{TokenFile: tokenFile})
	require.NoError(t, err)
	assert.Equal(t, "file-token", token)

	_, err = resolveVaultToken(VaultConfig{TokenFile: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	_, err = resolveVaultToken(VaultConfig{})
	assert.Error(t, err)
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{AI: AIConfig{APIKey: "from-env"}}
	require.NoError(t, ApplyVaultSecrets(config, errors.NewNopLogger()))
	assert.Equal(t, "from-env", config.AI.APIKey)
}

func TestVaultClientApplySecrets(t *testing.T) {
	vc := newFakeVault(fakeReader{
		"secret/data/skillgap/api":    kv2(map[string]any{"keys": "k1, k2,,k3"}, float64(3)),
		"secret/data/skillgap/gemini": kv2(map[string]any{"api_key": "gemini-secret-key"}, "1"),
	})
	config := &Config{Vault: VaultConfig{Secrets: VaultSecrets{
		APIKeys:   "secret/data/skillgap/api",
		GeminiKey: "secret/data/skillgap/gemini",
	}}}

	require.NoError(t, vc.applySecrets(config))
	assert.Equal(t, []string{"k1", "k2", "k3"}, config.Server.APIKeys)
	assert.Equal(t, "gemini-secret-key", config.AI.APIKey)
	assert.Equal(t, "gemini-secret-key", config.AI.Narrative.APIKey)
}

func TestVaultClientGetSecretErrors(t *testing.T) {
	vc := newFakeVault(fakeReader{
		"not-kv2":   {Data: map[string]any{"api_key": "x"}},
		"no-meta":   {Data: map[string]any{"data": map[string]any{"api_key": "x"}}},
		"not-a-str": kv2(map[string]any{"api_key": 12}, int64(1)),
	})

	_, err := vc.GetSecretV2("broken")
	assert.Error(t, err)
	_, err = vc.GetSecretV2("absent")
	assert.ErrorContains(t, err, "secret not found")
	_, err = vc.GetSecretV2("not-kv2")
	assert.ErrorContains(t, err, "missing 'data' field")
	_, err = vc.GetSecretV2("no-meta")
	assert.ErrorContains(t, err, "missing 'metadata' field")
	_, err = vc.GetStringSecret("not-a-str", "api_key")
	assert.ErrorContains(t, err, "is not a string")
	_, err = vc.GetStringSecret("not-a-str", "other")
	assert.ErrorContains(t, err, "not found in secret")

	var nilClient *VaultClient
	_, err = nilClient.GetSecretV2("any")
	assert.Error(t, err)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****6789", maskSecret("abcdef-123456789"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}
