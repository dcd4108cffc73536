package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
)

const (
	testAPIKey      = "anon-key"
	testServiceKey  = "service-key"
	testAccessToken = "user-token"
)

type ClientSuite struct {
	suite.Suite
	router   chi.Router
	server   *httptest.Server
	client   *Client
	userID   uuid.UUID
	factorID uuid.UUID
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.userID = uuid.New()
	s.factorID = uuid.New()
	s.router = chi.NewRouter()
	s.server = httptest.NewServer(s.router)
	s.client = NewClient(s.server.URL+"/", testAPIKey, testServiceKey, time.Second)
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) userJSON() map[string]any {
	return map[string]any{
		"id":            s.userID.String(),
		"email":         "ada@example.com",
		"user_metadata": map[string]any{"display_name": "Ada"},
		"app_metadata":  map[string]any{"role": "Editor", "role_level": 70},
		"created_at":    "2025-01-02T03:04:05Z",
		"factors": []map[string]any{
			{"id": s.factorID.String(), "factor_type": "totp", "status": "verified", "friendly_name": "phone"},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *ClientSuite) TestGetUser() {
	s.router.Get("/user", func(w http.ResponseWriter, r *http.Request) {
		s.Equal(testAPIKey, r.Header.Get("apikey"))
		s.Equal("Bearer "+testAccessToken, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, s.userJSON())
	})

	user, err := s.client.GetUser(context.Background(), testAccessToken)
	s.Require().NoError(err)
	s.Equal(id.IdentityID(s.userID), user.ID)
	s.Equal("Ada", user.DisplayName())
	s.Equal("Editor", user.AppMetadata["role"])
	s.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), user.CreatedAt.UTC())
	s.Require().Len(user.VerifiedTOTP(), 1)
	s.Equal(id.FactorID(s.factorID), user.Factors[0].ID)
}

func (s *ClientSuite) TestGetUserRequiresToken() {
	_, err := s.client.GetUser(context.Background(), "")
	s.ErrorIs(err, ErrNoToken)
	s.ErrorIs(err, sentinel.ErrInvalidInput)
}

func (s *ClientSuite) TestStatusMapping() {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, sentinel.ErrExpired},
		{http.StatusNotFound, sentinel.ErrNotFound},
		{http.StatusUnprocessableEntity, sentinel.ErrInvalidInput},
		{http.StatusConflict, sentinel.ErrConflict},
		{http.StatusServiceUnavailable, sentinel.ErrUnavailable},
	}
	for _, tc := range cases {
		s.Run(http.StatusText(tc.status), func() {
			router := chi.NewRouter()
			router.Get("/user", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tc.status, map[string]any{"msg": "provider says no"})
			})
			server := httptest.NewServer(router)
			defer server.Close()

			_, err := NewClient(server.URL, testAPIKey, testServiceKey, time.Second).GetUser(context.Background(), testAccessToken)
			s.ErrorIs(err, tc.want)
			s.Equal("provider says no", Message(err))
		})
	}
}

func (s *ClientSuite) TestTransportFailureIsUnavailable() {
	s.server.Close()
	_, err := s.client.GetUser(context.Background(), testAccessToken)
	s.ErrorIs(err, sentinel.ErrUnavailable)
	s.Empty(Message(err))
}

func (s *ClientSuite) TestSignOut() {
	called := false
	s.router.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		called = true
		s.Equal("Bearer "+testAccessToken, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	s.Require().NoError(s.client.SignOut(context.Background(), testAccessToken))
	s.True(called)
}

func (s *ClientSuite) TestGetIdentityByIDUsesServiceRole() {
	s.router.Get("/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.Equal(s.userID.String(), chi.URLParam(r, "id"))
		s.Equal(testServiceKey, r.Header.Get("apikey"))
		s.Equal("Bearer "+testServiceKey, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, s.userJSON())
	})

	user, err := s.client.GetIdentityByID(context.Background(), id.IdentityID(s.userID))
	s.Require().NoError(err)
	s.Equal("ada@example.com", user.Email)
}

func (s *ClientSuite) TestFactorLifecycle() {
	challengeID := uuid.NewString()
	s.router.Post("/factors", func(w http.ResponseWriter, r *http.Request) {
		var req enrollRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		s.Equal(identity.FactorTypeTOTP, req.FactorType)
		writeJSON(w, http.StatusOK, map[string]any{
			"id":   s.factorID.String(),
			"type": "totp",
			"totp": map[string]any{"qr_code": "data:image/svg+xml;...", "secret": "JBSWY3DP", "uri": "otpauth://totp/x"},
		})
	})
	s.router.Post("/factors/{id}/challenge", func(w http.ResponseWriter, r *http.Request) {
		s.Equal(s.factorID.String(), chi.URLParam(r, "id"))
		writeJSON(w, http.StatusOK, map[string]any{"id": challengeID, "expires_at": time.Now().Add(time.Minute).Unix()})
	})
	s.router.Post("/factors/{id}/verify", func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		if req.Code != "123456" || req.ChallengeID != challengeID {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"msg": "Invalid TOTP code entered"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "upgraded",
			"token_type":   "bearer",
			"expires_in":   3600,
			"expires_at":   time.Now().Add(time.Hour).Unix(),
			"user":         s.userJSON(),
		})
	})
	s.router.Delete("/factors/{id}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": s.factorID.String()})
	})

	ctx := context.Background()
	enrollment, err := s.client.Enroll(ctx, testAccessToken, "phone")
	s.Require().NoError(err)
	s.Equal(id.FactorID(s.factorID), enrollment.FactorID)
	s.Equal("JBSWY3DP", enrollment.Secret)
	s.Equal("otpauth://totp/x", enrollment.URI)

	gotChallenge, err := s.client.Challenge(ctx, testAccessToken, enrollment.FactorID)
	s.Require().NoError(err)
	s.Equal(challengeID, gotChallenge)

	_, err = s.client.Verify(ctx, testAccessToken, enrollment.FactorID, gotChallenge, "000000")
	s.ErrorIs(err, sentinel.ErrInvalidInput)
	s.Equal("Invalid TOTP code entered", Message(err))

	session, err := s.client.Verify(ctx, testAccessToken, enrollment.FactorID, gotChallenge, "123456")
	s.Require().NoError(err)
	s.Equal("upgraded", session.AccessToken)
	s.Equal(id.IdentityID(s.userID), session.Identity.ID)

	s.NoError(s.client.Unenroll(ctx, testAccessToken, enrollment.FactorID))
}

func (s *ClientSuite) TestSignInWithPassword() {
	s.router.Post("/token", func(w http.ResponseWriter, r *http.Request) {
		s.Equal("password", r.URL.Query().Get("grant_type"))
		s.Equal(testAPIKey, r.Header.Get("apikey"))
		s.Empty(r.Header.Get("Authorization"))
		var req passwordGrantRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "correct horse" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error_description": "Invalid login credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "first-factor",
			"expires_in":   3600,
			"user":         s.userJSON(),
		})
	})

	ctx := context.Background()
	_, err := s.client.SignInWithPassword(ctx, "ada@example.com", "wrong")
	s.ErrorIs(err, sentinel.ErrInvalidInput)
	s.Equal("Invalid login credentials", Message(err))

	session, err := s.client.SignInWithPassword(ctx, "ada@example.com", "correct horse")
	s.Require().NoError(err)
	s.Equal("first-factor", session.AccessToken)
	s.Equal(identity.AssurancePassword, session.AssuranceLevel)
	s.Len(session.Identity.VerifiedTOTP(), 1)
}

func (s *ClientSuite) TestHealth() {
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		s.Equal(testAPIKey, r.Header.Get("apikey"))
		s.Empty(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"version": "v2", "name": "GoTrue"})
	})
	s.NoError(s.client.Health(context.Background()))

	s.server.Close()
	s.ErrorIs(s.client.Health(context.Background()), sentinel.ErrUnavailable)
}
