package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
)

// AuthService issues bearer tokens and resolves them back to users. Tokens
// are never stored, so there is no revocation.
type AuthService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	logger                      logging.Logger
}

// NewAuthService constructs an AuthService using the JWT settings from cfg.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		logger:                      logger.With("module", "auth"),
	}
}

// Login checks the credentials and returns a signed token. Unknown email and
// wrong password both yield common.ErrorInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if validText("email", email) != nil {
		auth.CompareDummy(password)
		return "", common.ErrorInvalidCredentials
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.CompareDummy(password)
			return "", common.ErrorInvalidCredentials
		}
		return "", err
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return "", err
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	s.logger.Debug(ctx, "token issued", "user_id", user.ID)
	return token, nil
}

// Authenticate resolves token to the user it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.PublicUser, error) {
	if token == "" {
		return nil, common.ErrMissingToken
	}

	userID, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownUser
		}
		return nil, err
	}

	return user, nil
}
