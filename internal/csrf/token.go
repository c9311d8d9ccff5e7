package csrf

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// TokenContextKey is the key for storing the verified token in a request context
	TokenContextKey ContextKey = "csrfToken"

	// HeaderName is the request header carrying the token.
	HeaderName = "X-CSRFToken"
)

// Token is an issued CSRF token. Tokens are accepted until ExpiresAt.
type Token struct {
	ID        uuid.UUID `gorm:"type:uuid;column:id;not null;primaryKey" json:"-"`
	Value     string    `gorm:"type:varchar(64);column:value;not null;uniqueIndex" json:"csrf_token"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"-"`
}

// TableName specifies the database table name for Token
func (t *Token) TableName() string {
	return "csrf_tokens"
}

// Expired reports whether the token is no longer accepted at now.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// FromContext returns the token verified for the request, or "" when the
// request did not need one.
func FromContext(ctx context.Context) string {
	value, _ := ctx.Value(TokenContextKey).(string)
	return value
}
