package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
)

type SocialAccountRepository interface {
	FindByWorkspaceAndPlatform(ctx context.Context, workspaceID string, platform models.Platform) (*models.SocialAccount, error)
	ListExpiringBefore(ctx context.Context, before time.Time) ([]*models.SocialAccount, error)
	SetToken(ctx context.Context, accountID, oldAccessToken string, sa *models.SocialAccount) error
	MarkRevoked(ctx context.Context, accountID string) error
}

const socialAccountColumns = `id, workspace_id, platform, platform_user_id, access_token, refresh_token, token_expires_at, metadata, account_status, created_at, updated_at`

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

func scanSocialAccount(row rowScanner) (*models.SocialAccount, error) {
	var (
		sa           models.SocialAccount
		refreshToken sql.NullString
	)
	err := row.Scan(&sa.ID, &sa.WorkspaceID, &sa.Platform, &sa.PlatformUserID,
		&sa.AccessToken, &refreshToken, &sa.TokenExpiresAt, &sa.Metadata,
		&sa.AccountStatus, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sa.RefreshToken = refreshToken.String
	return &sa, nil
}

func (r *socialAccountRepository) FindByWorkspaceAndPlatform(ctx context.Context, workspaceID string, platform models.Platform) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts
		WHERE workspace_id = $1 AND platform = $2
		ORDER BY updated_at DESC
		LIMIT 1`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, workspaceID, platform))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) ListExpiringBefore(ctx context.Context, before time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts
		WHERE token_expires_at IS NOT NULL
		AND token_expires_at < $1
		AND account_status = $2`

	rows, err := r.db.QueryContext(ctx, query, before, models.AccountStatusActive)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

// SetToken stores refreshed credentials, guarded by the previous access token
// so a concurrent refresh does not overwrite a newer one.
func (r *socialAccountRepository) SetToken(ctx context.Context, accountID, oldAccessToken string, sa *models.SocialAccount) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	updateTokenQuery := `
		UPDATE social_accounts
		SET
			access_token = COALESCE(NULLIF($3, ''), access_token),
			refresh_token = COALESCE(NULLIF($4, ''), refresh_token),
			token_expires_at = COALESCE($5, token_expires_at),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND access_token = $2;
	`
	result, err := tx.ExecContext(ctx, updateTokenQuery, accountID, oldAccessToken, sa.AccessToken, sa.RefreshToken, sa.TokenExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info("no rows affected; account may have been refreshed concurrently", "account_id", accountID)
		return errors.New("no rows affected; account may have been refreshed concurrently")
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) MarkRevoked(ctx context.Context, accountID string) error {
	query := `UPDATE social_accounts SET account_status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, models.AccountStatusRevoked, accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
