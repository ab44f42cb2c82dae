// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, so the binary never runs
// with partial, malformed, or missing configuration.
//
// Beyond the built-in tags, one rule lives here: secret fields must not
// still hold a `vault:` reference after loading.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/vault"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		return err
	}
	for name, val := range map[string]string{
		"mail.api_key":    c.Mail.APIKey,
		"sms.auth_token":  c.SMS.AuthToken,
		"sms.account_sid": c.SMS.AccountSID,
	} {
		if strings.HasPrefix(val, vault.RefPrefix) {
			return fmt.Errorf("%s: unresolved vault reference", name)
		}
	}
	return nil
}
