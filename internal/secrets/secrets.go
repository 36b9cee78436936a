// Package secrets stores API keys in the OS keychain so config files can
// reference them as "keyring:<account>".
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups careerscout's entries in the OS keychain.
const KeyringService = "careerscout"

// Accounts are the keychain entries the config layer knows how to reference.
var Accounts = []string{"scrapin", "serpapi", "phantombuster", "ai", "postgres"}

// Get returns the secret stored under account.
func Get(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("keyring account name is empty")
	}
	v, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("no keychain entry for %q (run: careerscout secrets set %s)", account, account)
	}
	if err != nil {
		return "", fmt.Errorf("reading keychain entry %q: %w", account, err)
	}
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("keychain entry %q is empty", account)
	}
	return v, nil
}

// Set stores value under account, replacing any previous value.
func Set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

// Delete removes the entry for account. Deleting a missing entry is not an
// error.
func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if err := keyring.Delete(KeyringService, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// Has reports whether account has a stored entry.
func Has(account string) bool {
	_, err := keyring.Get(KeyringService, account)
	return err == nil
}
