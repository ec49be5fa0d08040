// Package sheets exports audit reports to Google Sheets for compliance
// reviewers.
package sheets

import (
	"fmt"

	"github.com/veridian-labs/veridian/internal/common"
)

// Config holds Google Sheets export configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	// SpreadsheetName names the report spreadsheet to create.
	SpreadsheetName string
}

// Validate checks that the OAuth2 client settings are present.
func (c Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("%w: sheets client id and secret are required", common.ErrMissingConfig)
	}
	if c.TokenFile == "" {
		return fmt.Errorf("%w: sheets token file is required", common.ErrMissingConfig)
	}
	return nil
}
