// Package admin maps provider-issued session tokens to administrative
// identities. Access is gated by an email allow-list stored in the database.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/stackfinder/stackfinder/internal/auth"
	"github.com/stackfinder/stackfinder/internal/authgw"
	"github.com/stackfinder/stackfinder/internal/models"
)

// DeniedError is an expected, user-facing authorization denial. It carries
// the message shown to the user; it is not a transport failure.
type DeniedError struct {
	Message string
}

func (e *DeniedError) Error() string {
	return e.Message
}

// Identity is a verified administrative identity.
type Identity struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// ProviderClient is the slice of the auth provider API the service needs.
type ProviderClient interface {
	GetUser(ctx context.Context, token string) (*authgw.User, error)
}

// Service performs the who-am-I check backing /api/admin/me.
type Service struct {
	db       *gorm.DB
	verifier *auth.Verifier
	provider ProviderClient
	logger   zerolog.Logger
}

// NewService creates an admin authorization service.
func NewService(db *gorm.DB, verifier *auth.Verifier, provider ProviderClient, logger zerolog.Logger) *Service {
	return &Service{db: db, verifier: verifier, provider: provider, logger: logger}
}

// WhoAmI resolves a session token to an admin identity. Returns *DeniedError
// for expected denials (bad token, revoked session, email not allow-listed);
// any other error means the check could not be performed.
func (s *Service) WhoAmI(ctx context.Context, token string) (*Identity, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		return nil, &DeniedError{Message: "Invalid or expired session"}
	}

	// Signature checks out; confirm the session is still live with the
	// provider. A locally-valid token may have been revoked.
	user, err := s.provider.GetUser(ctx, token)
	if err != nil {
		if errors.Is(err, authgw.ErrUnauthorized) {
			return nil, &DeniedError{Message: "Session has been revoked"}
		}
		return nil, err
	}

	email := user.Email
	if email == "" {
		email = claims.Email
	}
	if email == "" {
		return nil, &DeniedError{Message: "Session carries no identity"}
	}

	var adminUser models.AdminUser
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&adminUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Info().Str("email", email).Msg("Admin access denied: email not on allow-list")
			return nil, &DeniedError{Message: "no access"}
		}
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&adminUser).Update("last_seen_at", now).Error; err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("Failed to record admin last-seen time")
	}

	return &Identity{
		UserID:      user.ID,
		Email:       adminUser.Email,
		DisplayName: adminUser.DisplayName,
	}, nil
}

// Grant adds an email to the admin allow-list.
func (s *Service) Grant(ctx context.Context, email, displayName string) (*models.AdminUser, error) {
	adminUser := &models.AdminUser{Email: email, DisplayName: displayName}
	if err := s.db.WithContext(ctx).Create(adminUser).Error; err != nil {
		return nil, err
	}
	s.logger.Info().Str("email", email).Msg("Admin access granted")
	return adminUser, nil
}

// Revoke removes an email from the admin allow-list.
func (s *Service) Revoke(ctx context.Context, email string) error {
	result := s.db.WithContext(ctx).Where("email = ?", email).Delete(&models.AdminUser{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.logger.Info().Str("email", email).Msg("Admin access revoked")
	return nil
}

// List returns all allow-listed admins.
func (s *Service) List(ctx context.Context) ([]models.AdminUser, error) {
	var admins []models.AdminUser
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}
