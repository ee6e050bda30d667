package calllog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivansh47201/vartalap/internal/domain"
)

// Mocks

type MockCallLogRepository struct {
	mock.Mock
}

func (m *MockCallLogRepository) Create(ctx context.Context, log *domain.CallLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockCallLogRepository) GetForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.CallLog, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CallLog), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetSummaries(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*domain.UserSummary, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*domain.UserSummary), args.Error(1)
}

func summariesFor(ids ...uuid.UUID) map[uuid.UUID]*domain.UserSummary {
	out := make(map[uuid.UUID]*domain.UserSummary)
	for _, id := range ids {
		out[id] = &domain.UserSummary{UserID: id, Username: "user-" + id.String()[:8]}
	}
	return out
}

func TestCreateOutgoingAssignsActorAsCaller(t *testing.T) {
	callLogRepo := new(MockCallLogRepository)
	userRepo := new(MockUserRepository)
	svc := NewService(callLogRepo, userRepo, nil)

	actor := uuid.New()
	other := uuid.New()

	var stored *domain.CallLog
	callLogRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.CallLog")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.CallLog) }).
		Return(nil)
	userRepo.On("GetSummaries", mock.Anything, mock.Anything).Return(summariesFor(actor, other), nil)

	ended := time.Now()
	resp, err := svc.Create(context.Background(), actor, &domain.CallLogCreate{
		OtherUserID:    other,
		Mode:           domain.CallModeVideo,
		Direction:      domain.CallDirectionOutgoing,
		Status:         domain.CallStatusCompleted,
		StartedAt:      ended.Add(-time.Minute),
		EndedAt:        &ended,
		DurationMillis: 60000,
		TempID:         "tmp-123",
	})

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, actor, stored.CallerID)
	assert.Equal(t, other, stored.CalleeID)
	assert.Equal(t, domain.CallStatusCompleted, stored.Status)

	// temp_id is echoed back but never persisted
	assert.Equal(t, "tmp-123", resp.TempID)
	assert.Equal(t, actor, resp.Caller.UserID)
	assert.Equal(t, other, resp.Callee.UserID)
}

func TestCreateIncomingAssignsActorAsCallee(t *testing.T) {
	callLogRepo := new(MockCallLogRepository)
	userRepo := new(MockUserRepository)
	svc := NewService(callLogRepo, userRepo, nil)

	actor := uuid.New()
	other := uuid.New()

	var stored *domain.CallLog
	callLogRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.CallLog")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.CallLog) }).
		Return(nil)
	userRepo.On("GetSummaries", mock.Anything, mock.Anything).Return(summariesFor(actor, other), nil)

	_, err := svc.Create(context.Background(), actor, &domain.CallLogCreate{
		OtherUserID: other,
		Direction:   domain.CallDirectionIncoming,
		Status:      domain.CallStatusMissed,
	})

	require.NoError(t, err)
	assert.Equal(t, other, stored.CallerID)
	assert.Equal(t, actor, stored.CalleeID)
}

func TestCreateRequiresOtherUser(t *testing.T) {
	svc := NewService(new(MockCallLogRepository), new(MockUserRepository), nil)

	_, err := svc.Create(context.Background(), uuid.New(), &domain.CallLogCreate{})
	assert.Error(t, err)
}

func TestCreateDefaults(t *testing.T) {
	callLogRepo := new(MockCallLogRepository)
	userRepo := new(MockUserRepository)
	svc := NewService(callLogRepo, userRepo, nil)

	actor := uuid.New()
	other := uuid.New()

	var stored *domain.CallLog
	callLogRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.CallLog) }).
		Return(nil)
	userRepo.On("GetSummaries", mock.Anything, mock.Anything).Return(summariesFor(actor, other), nil)

	_, err := svc.Create(context.Background(), actor, &domain.CallLogCreate{OtherUserID: other})

	require.NoError(t, err)
	assert.Equal(t, domain.CallDirectionOutgoing, stored.Direction)
	assert.Equal(t, domain.CallModeVoice, stored.Mode)
	assert.Equal(t, domain.CallStatusCompleted, stored.Status)
	assert.False(t, stored.StartedAt.IsZero())
}

func TestListResolvesParticipants(t *testing.T) {
	callLogRepo := new(MockCallLogRepository)
	userRepo := new(MockUserRepository)
	svc := NewService(callLogRepo, userRepo, nil)

	me := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	logs := []*domain.CallLog{
		{CallLogID: uuid.New(), CallerID: me, CalleeID: alice, Status: domain.CallStatusCompleted, StartedAt: time.Now()},
		{CallLogID: uuid.New(), CallerID: bob, CalleeID: me, Status: domain.CallStatusMissed, StartedAt: time.Now().Add(-time.Hour)},
	}
	callLogRepo.On("GetForUser", mock.Anything, me, 100).Return(logs, nil)
	userRepo.On("GetSummaries", mock.Anything, mock.Anything).Return(summariesFor(me, alice, bob), nil)

	out, err := svc.List(context.Background(), me)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, me, out[0].Caller.UserID)
	assert.Equal(t, alice, out[0].Callee.UserID)
	assert.Equal(t, bob, out[1].Caller.UserID)
	assert.Equal(t, domain.CallStatusMissed, out[1].Status)
}
