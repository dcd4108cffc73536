package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Resolver

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"gatekeeper/internal/platform/metrics"
	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/models"
	"gatekeeper/internal/roles/service/mocks"
	id "gatekeeper/pkg/domain"
)

type ServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockStore    *mocks.MockStore
	mockResolver *mocks.MockResolver
	metrics      *metrics.Metrics
	service      *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockResolver = mocks.NewMockResolver(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.mockStore, s.mockResolver, WithLogger(logger), WithMetrics(s.metrics))
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// Shared fixture builders

func newIdentityID() id.IdentityID { return id.IdentityID(uuid.New()) }

func roleAt(level catalog.Level) models.Role {
	info, _ := catalog.Lookup(level)
	return models.Role{
		ID:          id.RoleID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(info.Name))),
		Name:        info.Name,
		Description: info.Description,
		Level:       level,
	}
}

func assignedAt(identityID id.IdentityID, level catalog.Level, at time.Time) models.AssignedRole {
	return models.AssignedRole{IdentityID: identityID, Role: roleAt(level), AssignedAt: at}
}
