package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	AccountStatusActive  = "active"
	AccountStatusRevoked = "revoked"
)

type SocialAccount struct {
	ID             string          `db:"id" json:"id"`
	WorkspaceID    string          `db:"workspace_id" json:"workspace_id"`
	Platform       Platform        `db:"platform" json:"platform"`
	PlatformUserID string          `db:"platform_user_id" json:"platform_user_id"`
	AccessToken    string          `db:"access_token" json:"-"`
	RefreshToken   string          `db:"refresh_token" json:"-"`
	TokenExpiresAt *time.Time      `db:"token_expires_at" json:"token_expires_at"`
	Metadata       AccountMetadata `db:"metadata" json:"metadata"`
	AccountStatus  string          `db:"account_status" json:"account_status"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// NeedsReconnect reports whether the stored credential can no longer
// authenticate platform calls and cannot be refreshed.
func (a *SocialAccount) NeedsReconnect(now time.Time) bool {
	if a.AccountStatus == AccountStatusRevoked {
		return true
	}
	if a.TokenExpiresAt == nil || a.TokenExpiresAt.After(now) {
		return false
	}
	return a.RefreshToken == ""
}

type AccountMetadata struct {
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Email    string `json:"email,omitempty"`
}

func (m AccountMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *AccountMetadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = AccountMetadata{}
		return nil
	case []byte:
		if len(v) == 0 {
			*m = AccountMetadata{}
			return nil
		}
		return json.Unmarshal(v, m)
	case string:
		return m.Scan([]byte(v))
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
}
