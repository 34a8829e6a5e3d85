package account

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAccountFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "account.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_AssignsSequentialIDs(t *testing.T) {
	path := writeAccountFile(t, `[
		{"address": "0xaaa", "auth_token": "t1", "min_auth_token": "m1"},
		{"address": "0xbbb", "auth_token": "t2", "min_auth_token": "m2"},
		{"address": "0xccc", "auth_token": "t3", "min_auth_token": "m3"}
	]`)

	accounts, err := Load(path)
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	for i, acc := range accounts {
		assert.Equal(t, i+1, acc.ID)
	}
	assert.Equal(t, "0xbbb", accounts[1].Address)
	assert.Equal(t, "t2", accounts[1].AuthToken)
	assert.Equal(t, "m2", accounts[1].MinAuthToken)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty array", content: `[]`},
		{name: "not an array", content: `{"address": "0xaaa"}`},
		{name: "invalid json", content: `not json`},
		{
			name:    "missing auth_token",
			content: `[{"address": "0xaaa", "min_auth_token": "m1"}]`,
		},
		{
			name:    "missing address",
			content: `[{"auth_token": "t1", "min_auth_token": "m1"}]`,
		},
		{
			name: "one bad record fails the whole list",
			content: `[
				{"address": "0xaaa", "auth_token": "t1", "min_auth_token": "m1"},
				{"address": "0xbbb", "auth_token": "t2", "min_auth_token": ""}
			]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeAccountFile(t, tt.content)
			accounts, err := Load(path)
			assert.Error(t, err)
			assert.Nil(t, accounts)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	accounts, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	assert.Nil(t, accounts)
}

func TestFilter(t *testing.T) {
	accounts := []Account{
		{ID: 1, Address: "0xaa11"},
		{ID: 2, Address: "0xbb22"},
		{ID: 3, Address: "0xaa33"},
	}

	t.Run("empty pattern keeps all", func(t *testing.T) {
		got, err := Filter(accounts, "")
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("glob match keeps IDs", func(t *testing.T) {
		got, err := Filter(accounts, "0xaa*")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 1, got[0].ID)
		assert.Equal(t, 3, got[1].ID)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := Filter(accounts, "[")
		assert.Error(t, err)
	})
}
