package testhelpers

import (
	"context"

	"backersync/domain/entities"
	"backersync/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockBackerSource is a mock implementation of BackerSource
type MockBackerSource struct {
	mock.Mock
}

func (m *MockBackerSource) FetchBackers(ctx context.Context, org string) ([]entities.Backer, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Backer), args.Error(1)
}

// MockTierRoleMap is a mock implementation of TierRoleMap
type MockTierRoleMap struct {
	mock.Mock
}

func (m *MockTierRoleMap) Role(tier string) (string, bool) {
	args := m.Called(tier)
	return args.String(0), args.Bool(1)
}

func (m *MockTierRoleMap) Contains(tier string) bool {
	args := m.Called(tier)
	return args.Bool(0)
}

// MockCommunityConnection is a mock implementation of CommunityConnection
type MockCommunityConnection struct {
	mock.Mock
}

func (m *MockCommunityConnection) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCommunityConnection) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockCommunityGateway is a mock implementation of CommunityGateway
type MockCommunityGateway struct {
	mock.Mock
}

func (m *MockCommunityGateway) Guild(ctx context.Context, guildID string) (*entities.Guild, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Guild), args.Error(1)
}

func (m *MockCommunityGateway) FindMemberByName(ctx context.Context, guildID, name string) (*entities.Member, error) {
	args := m.Called(ctx, guildID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *MockCommunityGateway) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	args := m.Called(ctx, guildID, userID, roleID)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockSyncMetrics is a mock implementation of SyncMetrics
type MockSyncMetrics struct {
	mock.Mock
}

func (m *MockSyncMetrics) RecordBackersFetched(count int) {
	m.Called(count)
}

func (m *MockSyncMetrics) RecordOutcome(outcome entities.SyncOutcome) {
	m.Called(outcome)
}

func (m *MockSyncMetrics) RecordRun(result string) {
	m.Called(result)
}

// MockRunNotifier is a mock implementation of RunNotifier
type MockRunNotifier struct {
	mock.Mock
}

func (m *MockRunNotifier) NotifyRun(ctx context.Context, report *entities.SyncReport, runErr error) error {
	args := m.Called(ctx, report, runErr)
	return args.Error(0)
}
