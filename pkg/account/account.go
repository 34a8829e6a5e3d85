// Package account loads and validates the miner account records used to
// authenticate browser sessions against the Nexus dashboard.
package account

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gobwas/glob"
)

// Account is a single immutable miner credential record loaded from disk.
type Account struct {
	// ID is the 1-based sequence number assigned at load time
	ID int `json:"-"`

	// Address is the wallet address displayed in the dashboard
	Address string `json:"address"`

	// AuthToken is the opaque authentication token injected into the
	// dashboard's persistent storage
	AuthToken string `json:"auth_token"`

	// MinAuthToken is the secondary opaque token required alongside AuthToken
	MinAuthToken string `json:"min_auth_token"`
}

// Load reads the account file and returns the validated account list with
// 1-based IDs assigned in file order.
//
// Loading is atomic: if the file is missing, empty, not a JSON array, or any
// record lacks a required field, no accounts are returned.
func Load(path string) ([]Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	var accounts []Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("failed to load %s: file is empty or not an array", path)
	}

	for i := range accounts {
		if accounts[i].Address == "" || accounts[i].AuthToken == "" || accounts[i].MinAuthToken == "" {
			return nil, fmt.Errorf("failed to load %s: account at index %d is missing required fields", path, i)
		}
		accounts[i].ID = i + 1
	}

	return accounts, nil
}

// Filter returns the accounts whose address matches the glob pattern.
// An empty pattern keeps every account. IDs are not reassigned so log lines
// stay correlated with the on-disk ordering.
func Filter(accounts []Account, pattern string) ([]Account, error) {
	if pattern == "" {
		return accounts, nil
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid account filter %q: %w", pattern, err)
	}

	var matched []Account
	for _, acc := range accounts {
		if g.Match(acc.Address) {
			matched = append(matched, acc)
		}
	}
	return matched, nil
}
