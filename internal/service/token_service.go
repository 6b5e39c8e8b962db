package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/maheshrc27/postflow/pkg/utils"
	"golang.org/x/oauth2"
)

// ThreadsTokenRefresher exchanges a long-lived Threads token for a new one.
type ThreadsTokenRefresher interface {
	RefreshToken(ctx context.Context, accessToken string) (*transfer.ThreadsRefreshResponse, error)
}

type TokenService interface {
	// RefreshAccount renews the credentials of acc, whose tokens are stored
	// encrypted, and persists the result.
	RefreshAccount(ctx context.Context, acc *models.SocialAccount) error
}

type tokenService struct {
	cfg     config.Config
	sa      repository.SocialAccountRepository
	threads ThreadsTokenRefresher
}

func NewTokenService(cfg config.Config, sa repository.SocialAccountRepository, threads ThreadsTokenRefresher) TokenService {
	return &tokenService{
		cfg:     cfg,
		sa:      sa,
		threads: threads,
	}
}

func (s *tokenService) RefreshAccount(ctx context.Context, acc *models.SocialAccount) error {
	plain, err := decryptAccount(acc, s.cfg.SecretKey)
	if err != nil {
		return err
	}

	var (
		accessToken  string
		refreshToken string
		expiresAt    time.Time
	)

	switch acc.Platform {
	case models.PlatformThreads:
		token, err := s.threads.RefreshToken(ctx, plain.AccessToken)
		if err != nil {
			return err
		}
		accessToken = token.AccessToken
		expiresAt = GetExpiresAt(token.ExpiresIn)

	case models.PlatformTwitter, models.PlatformLinkedIn:
		if plain.RefreshToken == "" {
			return fmt.Errorf("%s account %s has no refresh token", acc.Platform, acc.ID)
		}
		token, err := s.oauthConfig(acc.Platform).TokenSource(ctx, &oauth2.Token{RefreshToken: plain.RefreshToken}).Token()
		if err != nil {
			var re *oauth2.RetrieveError
			if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
				slog.Warn("refresh token rejected, marking account revoked", "account_id", acc.ID, "platform", acc.Platform)
				if err := s.sa.MarkRevoked(ctx, acc.ID); err != nil {
					return err
				}
			}
			return err
		}
		accessToken = token.AccessToken
		expiresAt = token.Expiry
		// Twitter rotates refresh tokens; LinkedIn may not return one.
		if token.RefreshToken != plain.RefreshToken {
			refreshToken = token.RefreshToken
		}

	default:
		return fmt.Errorf("token refresh not supported for %s", acc.Platform)
	}

	update := &models.SocialAccount{}
	update.AccessToken, err = utils.Encrypt([]byte(accessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}
	if refreshToken != "" {
		update.RefreshToken, err = utils.Encrypt([]byte(refreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return err
		}
	}
	if !expiresAt.IsZero() {
		update.TokenExpiresAt = &expiresAt
	}

	if err := s.sa.SetToken(ctx, acc.ID, acc.AccessToken, update); err != nil {
		return err
	}

	slog.Info("account token refreshed", "account_id", acc.ID, "platform", acc.Platform)
	return nil
}

func (s *tokenService) oauthConfig(p models.Platform) *oauth2.Config {
	if p == models.PlatformTwitter {
		return &oauth2.Config{
			ClientID:     s.cfg.Twitter.ClientID,
			ClientSecret: s.cfg.Twitter.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  s.cfg.Twitter.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		}
	}
	return &oauth2.Config{
		ClientID:     s.cfg.LinkedIn.ClientID,
		ClientSecret: s.cfg.LinkedIn.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  s.cfg.LinkedIn.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
