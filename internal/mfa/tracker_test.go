package mfa_test

//go:generate mockgen -source=tracker.go -destination=mocks/mocks.go -package=mocks PendingStore,FactorProvider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/mfa"
	"gatekeeper/internal/mfa/mocks"
	"gatekeeper/internal/platform/metrics"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/requestcontext"
)

const firstFactorToken = "aal1-token"

type TrackerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	pending  *mocks.MockPendingStore
	provider *mocks.MockFactorProvider
	metrics  *metrics.Metrics
	tracker  *mfa.Tracker
	ctx      context.Context
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}

func (s *TrackerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.pending = mocks.NewMockPendingStore(s.ctrl)
	s.provider = mocks.NewMockFactorProvider(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.tracker = mfa.NewTracker(s.pending, s.provider, mfa.WithLogger(logger), mfa.WithMetrics(s.metrics))
	s.ctx = requestcontext.WithAccessToken(context.Background(), firstFactorToken)
}

func (s *TrackerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func verifiedFactor() identity.Factor {
	return identity.Factor{ID: id.FactorID(uuid.New()), Type: identity.FactorTypeTOTP, Status: identity.FactorStatusVerified}
}

func (s *TrackerSuite) TestAfterPrimaryAuth() {
	identityID := id.IdentityID(uuid.New())

	s.Run("full session needs no challenge", func() {
		state, token, err := s.tracker.AfterPrimaryAuth(s.ctx, mfa.PrimaryAuthOutcome{IdentityID: identityID})
		s.Require().NoError(err)
		s.Equal(mfa.StateNoChallenge, state)
		s.Empty(token)
	})

	s.Run("second factor required stores a ten minute token", func() {
		var saved mfa.PendingToken
		s.pending.EXPECT().Save(gomock.Any(), gomock.Any(), identityID, 10*time.Minute).
			DoAndReturn(func(_ context.Context, token mfa.PendingToken, _ id.IdentityID, _ time.Duration) error {
				saved = token
				return nil
			})

		state, token, err := s.tracker.AfterPrimaryAuth(s.ctx, mfa.PrimaryAuthOutcome{IdentityID: identityID, SecondFactorRequired: true})
		s.Require().NoError(err)
		s.Equal(mfa.StatePendingSecondFactor, state)
		s.NotEmpty(token)
		s.Equal(saved, token)
		s.GreaterOrEqual(len(token), 40)
	})

	s.Run("store failure is internal", func() {
		s.pending.EXPECT().Save(gomock.Any(), gomock.Any(), identityID, gomock.Any()).Return(errors.New("redis down"))

		_, _, err := s.tracker.AfterPrimaryAuth(s.ctx, mfa.PrimaryAuthOutcome{IdentityID: identityID, SecondFactorRequired: true})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *TrackerSuite) TestVerify() {
	identityID := id.IdentityID(uuid.New())
	token := mfa.PendingToken("pending")

	s.Run("success consumes the pending token", func() {
		factor := verifiedFactor()
		upgraded := &identity.Session{AccessToken: "aal2-token", Identity: &identity.Identity{ID: identityID}}
		gomock.InOrder(
			s.pending.EXPECT().Find(gomock.Any(), token).Return(identityID, nil),
			s.provider.EXPECT().ListFactors(gomock.Any(), firstFactorToken).Return([]identity.Factor{factor}, nil),
			s.provider.EXPECT().Challenge(gomock.Any(), firstFactorToken, factor.ID).Return("challenge-1", nil),
			s.provider.EXPECT().Verify(gomock.Any(), firstFactorToken, factor.ID, "challenge-1", "123456").Return(upgraded, nil),
			s.pending.EXPECT().Consume(gomock.Any(), token).Return(identityID, nil),
		)

		result, err := s.tracker.Verify(s.ctx, token, "123456")
		s.Require().NoError(err)
		s.Equal(identityID, result.IdentityID)
		s.Equal("aal2-token", result.Session.AccessToken)
		s.InDelta(1, testutil.ToFloat64(s.metrics.MFAVerifications.WithLabelValues("success")), 0)
	})

	s.Run("missing pending token means session expired", func() {
		s.pending.EXPECT().Find(gomock.Any(), token).Return(id.IdentityID{}, sentinel.ErrNotFound)

		_, err := s.tracker.Verify(s.ctx, token, "123456")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("Session expired. Please log in again.", err.Error())
	})

	s.Run("empty pending token means session expired", func() {
		_, err := s.tracker.Verify(s.ctx, "", "123456")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("code must be six digits", func() {
		for _, code := range []string{"12345", "1234567", "12a456", ""} {
			_, err := s.tracker.Verify(s.ctx, token, code)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), code)
		}
	})

	s.Run("no verified factor", func() {
		s.pending.EXPECT().Find(gomock.Any(), token).Return(identityID, nil)
		s.provider.EXPECT().ListFactors(gomock.Any(), firstFactorToken).Return([]identity.Factor{
			{ID: id.FactorID(uuid.New()), Type: identity.FactorTypeTOTP, Status: identity.FactorStatusUnverified},
		}, nil)

		_, err := s.tracker.Verify(s.ctx, token, "123456")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("2FA not set up for this account", err.Error())
	})

	s.Run("wrong code keeps the pending token", func() {
		factor := verifiedFactor()
		s.pending.EXPECT().Find(gomock.Any(), token).Return(identityID, nil)
		s.provider.EXPECT().ListFactors(gomock.Any(), gomock.Any()).Return([]identity.Factor{factor}, nil)
		s.provider.EXPECT().Challenge(gomock.Any(), gomock.Any(), factor.ID).Return("challenge-2", nil)
		s.provider.EXPECT().Verify(gomock.Any(), gomock.Any(), factor.ID, "challenge-2", "000000").Return(nil, sentinel.ErrInvalidInput)

		_, err := s.tracker.Verify(s.ctx, token, "000000")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("Invalid verification code", dErrors.FieldErrors(err)["code"])
	})

	s.Run("verified session for another identity is refused", func() {
		factor := verifiedFactor()
		other := &identity.Session{AccessToken: "x", Identity: &identity.Identity{ID: id.IdentityID(uuid.New())}}
		s.pending.EXPECT().Find(gomock.Any(), token).Return(identityID, nil)
		s.provider.EXPECT().ListFactors(gomock.Any(), gomock.Any()).Return([]identity.Factor{factor}, nil)
		s.provider.EXPECT().Challenge(gomock.Any(), gomock.Any(), factor.ID).Return("c", nil)
		s.provider.EXPECT().Verify(gomock.Any(), gomock.Any(), factor.ID, "c", "123456").Return(other, nil)

		_, err := s.tracker.Verify(s.ctx, token, "123456")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("verified session without an identity is refused", func() {
		factor := verifiedFactor()
		s.pending.EXPECT().Find(gomock.Any(), token).Return(identityID, nil)
		s.provider.EXPECT().ListFactors(gomock.Any(), gomock.Any()).Return([]identity.Factor{factor}, nil)
		s.provider.EXPECT().Challenge(gomock.Any(), gomock.Any(), factor.ID).Return("c", nil)
		s.provider.EXPECT().Verify(gomock.Any(), gomock.Any(), factor.ID, "c", "123456").
			Return(&identity.Session{AccessToken: "aal2-token"}, nil)

		result, err := s.tracker.Verify(s.ctx, token, "123456")
		s.Nil(result)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.InDelta(2, testutil.ToFloat64(s.metrics.MFAVerifications.WithLabelValues("mismatch")), 0)
	})
}

func (s *TrackerSuite) TestState() {
	token := mfa.PendingToken("pending")

	s.pending.EXPECT().Find(gomock.Any(), token).Return(id.IdentityID(uuid.New()), nil)
	state, err := s.tracker.State(s.ctx, token)
	s.Require().NoError(err)
	s.Equal(mfa.StatePendingSecondFactor, state)

	s.pending.EXPECT().Find(gomock.Any(), token).Return(id.IdentityID{}, sentinel.ErrNotFound)
	state, err = s.tracker.State(s.ctx, token)
	s.Require().NoError(err)
	s.Equal(mfa.StateNoChallenge, state)

	state, err = s.tracker.State(s.ctx, "")
	s.Require().NoError(err)
	s.Equal(mfa.StateNoChallenge, state)
}

func (s *TrackerSuite) TestEnroll() {
	s.Run("rejected while a verified factor is active", func() {
		s.provider.EXPECT().ListFactors(gomock.Any(), firstFactorToken).Return([]identity.Factor{verifiedFactor()}, nil)

		_, err := s.tracker.Enroll(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("stale unverified enrollment is replaced", func() {
		stale := identity.Factor{ID: id.FactorID(uuid.New()), Type: identity.FactorTypeTOTP, Status: identity.FactorStatusUnverified}
		enrollment := &identity.Enrollment{FactorID: id.FactorID(uuid.New()), Secret: "JBSWY3DP", URI: "otpauth://totp/x"}
		gomock.InOrder(
			s.provider.EXPECT().ListFactors(gomock.Any(), firstFactorToken).Return([]identity.Factor{stale}, nil),
			s.provider.EXPECT().Unenroll(gomock.Any(), firstFactorToken, stale.ID).Return(nil),
			s.provider.EXPECT().Enroll(gomock.Any(), firstFactorToken, "").Return(enrollment, nil),
		)

		got, err := s.tracker.Enroll(s.ctx)
		s.Require().NoError(err)
		s.Equal(enrollment, got)
	})

	s.Run("requires a session", func() {
		_, err := s.tracker.Enroll(context.Background())
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *TrackerSuite) TestConfirmEnrollmentAndUnenroll() {
	factorID := id.FactorID(uuid.New())

	s.provider.EXPECT().Challenge(gomock.Any(), firstFactorToken, factorID).Return("c", nil)
	s.provider.EXPECT().Verify(gomock.Any(), firstFactorToken, factorID, "c", "654321").Return(&identity.Session{}, nil)
	s.Require().NoError(s.tracker.ConfirmEnrollment(s.ctx, factorID, "654321"))

	err := s.tracker.ConfirmEnrollment(s.ctx, id.FactorID{}, "654321")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.provider.EXPECT().Unenroll(gomock.Any(), firstFactorToken, factorID).Return(sentinel.ErrUnavailable)
	err = s.tracker.Unenroll(s.ctx, factorID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	s.provider.EXPECT().Unenroll(gomock.Any(), firstFactorToken, factorID).Return(nil)
	s.NoError(s.tracker.Unenroll(s.ctx, factorID))
}
