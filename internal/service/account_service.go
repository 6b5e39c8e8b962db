package service

import (
	"context"
	"fmt"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/pkg/utils"
)

// AccountService resolves the connected account a workspace publishes with.
type AccountService interface {
	// FindByWorkspaceAndPlatform returns nil, nil when no account is connected.
	FindByWorkspaceAndPlatform(ctx context.Context, workspaceID string, platform models.Platform) (*models.SocialAccount, error)
}

type accountService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewAccountService(cfg config.Config, sa repository.SocialAccountRepository) AccountService {
	return &accountService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *accountService) FindByWorkspaceAndPlatform(ctx context.Context, workspaceID string, platform models.Platform) (*models.SocialAccount, error) {
	acc, err := s.sa.FindByWorkspaceAndPlatform(ctx, workspaceID, platform)
	if err != nil || acc == nil {
		return nil, err
	}
	return decryptAccount(acc, s.cfg.SecretKey)
}

// decryptAccount returns a copy of acc with plaintext tokens.
func decryptAccount(acc *models.SocialAccount, secretKey string) (*models.SocialAccount, error) {
	out := *acc

	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(secretKey))
	if err != nil {
		return nil, fmt.Errorf("decrypt %s access token: %w", acc.Platform, err)
	}
	out.AccessToken = accessToken

	if acc.RefreshToken != "" {
		refreshToken, err := utils.Decrypt(acc.RefreshToken, []byte(secretKey))
		if err != nil {
			return nil, fmt.Errorf("decrypt %s refresh token: %w", acc.Platform, err)
		}
		out.RefreshToken = refreshToken
	}
	return &out, nil
}
