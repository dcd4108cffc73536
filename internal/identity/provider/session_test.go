package provider

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/requestcontext"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signSession(t *testing.T, method jwt.SigningMethod, key any, claims SessionClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(subject uuid.UUID, now time.Time) SessionClaims {
	return SessionClaims{
		Email:             "ada@example.com",
		AppMetadata:       map[string]any{"role": "Admin", "role_level": 90},
		IdentityCreatedAt: now.Add(-48 * time.Hour).Unix(),
		AAL:               "aal1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestSessionDecoderDecode(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	subject := uuid.New()
	decoder := NewSessionDecoder(testSecret)

	token := signSession(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(subject, now))
	session, err := decoder.Decode(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id.IdentityID(subject), session.Identity.ID)
	assert.Equal(t, now.Add(-48*time.Hour), session.Identity.CreatedAt)
	assert.Equal(t, "aal1", session.AssuranceLevel)
	assert.InDelta(t, 90, session.Identity.AppMetadata["role_level"], 0)
	assert.Equal(t, token, session.AccessToken)
}

func TestSessionDecoderRejects(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	subject := uuid.New()
	decoder := NewSessionDecoder(testSecret)

	t.Run("expired", func(t *testing.T) {
		claims := validClaims(subject, now.Add(-3*time.Hour))
		_, err := decoder.Decode(ctx, signSession(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
		assert.ErrorIs(t, err, sentinel.ErrExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signSession(t, jwt.SigningMethodHS256, []byte("another-secret"), validClaims(subject, now))
		_, err := decoder.Decode(ctx, token)
		assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token := signSession(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims(subject, now))
		_, err := decoder.Decode(ctx, token)
		assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
	})

	t.Run("missing creation time", func(t *testing.T) {
		claims := validClaims(subject, now)
		claims.IdentityCreatedAt = 0
		_, err := decoder.Decode(ctx, signSession(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
		assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
	})

	t.Run("bad subject", func(t *testing.T) {
		claims := validClaims(subject, now)
		claims.Subject = "anonymous"
		_, err := decoder.Decode(ctx, signSession(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
		assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := decoder.Decode(ctx, "")
		assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
	})
}

func TestAccessorWithoutTokenHasNoSession(t *testing.T) {
	accessor := NewAccessor(NewSessionDecoder(testSecret), NewClient("http://127.0.0.1:0", "", "", time.Second))
	session, err := accessor.GetSession(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, session)
}
