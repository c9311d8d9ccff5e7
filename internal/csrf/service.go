package csrf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvalidToken is returned for unknown or expired tokens.
var ErrInvalidToken = errors.New("invalid csrf token")

// Service issues and verifies CSRF tokens stored in the database.
type Service struct {
	db     *gorm.DB
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new Service issuing tokens valid for ttl.
func NewService(db *gorm.DB, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:     db,
		ttl:    ttl,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates and stores a new token.
func (s *Service) Issue(ctx context.Context) (*Token, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token id: %w", err)
	}
	value, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now()
	token := &Token{
		ID:        id,
		Value:     value.String(),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, fmt.Errorf("failed to store csrf token: %w", err)
	}

	s.logger.Debug("csrf token issued", zap.Time("expires_at", token.ExpiresAt))
	return token, nil
}

// Validate returns nil when value is a stored, unexpired token.
func (s *Service) Validate(ctx context.Context, value string) error {
	if value == "" {
		return ErrInvalidToken
	}

	var token Token
	err := s.db.WithContext(ctx).Where("value = ?", value).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to look up csrf token: %w", err)
	}

	if token.Expired(s.now()) {
		return ErrInvalidToken
	}
	return nil
}

// PurgeExpired deletes expired tokens and returns how many were removed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&Token{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge csrf tokens: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.logger.Info("expired csrf tokens purged", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}
