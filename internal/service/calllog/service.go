package calllog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/pkg/constants"
	"github.com/Shivansh47201/vartalap/pkg/metrics"
)

// CallLogRepository interface
type CallLogRepository interface {
	Create(ctx context.Context, log *domain.CallLog) error
	GetForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.CallLog, error)
}

// UserRepository interface for participant display info
type UserRepository interface {
	GetSummaries(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*domain.UserSummary, error)
}

// Service records and lists call history
type Service struct {
	callLogRepo CallLogRepository
	userRepo    UserRepository
	metrics     *metrics.Metrics
}

// NewService creates a new call log service
func NewService(callLogRepo CallLogRepository, userRepo UserRepository, m *metrics.Metrics) *Service {
	return &Service{
		callLogRepo: callLogRepo,
		userRepo:    userRepo,
		metrics:     m,
	}
}

// Create persists one call record. Caller and callee are assigned from
// the acting user and the declared direction: an outgoing record makes
// the actor the caller, an incoming one makes the actor the callee. The
// tempId, if present, is echoed back for client-side reconciliation but
// never stored.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, input *domain.CallLogCreate) (*domain.CallLogResponse, error) {
	if input.OtherUserID == uuid.Nil {
		return nil, fmt.Errorf("other_user_id is required")
	}

	direction := input.Direction
	if direction == "" {
		direction = domain.CallDirectionOutgoing
	}
	mode := input.Mode
	if mode == "" {
		mode = domain.CallModeVoice
	}
	status := input.Status
	if status == "" {
		status = domain.CallStatusCompleted
	}

	callerID, calleeID := actorID, input.OtherUserID
	if direction == domain.CallDirectionIncoming {
		callerID, calleeID = input.OtherUserID, actorID
	}

	startedAt := input.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	log := &domain.CallLog{
		CallLogID:      uuid.New(),
		CallerID:       callerID,
		CalleeID:       calleeID,
		ConversationID: input.ConversationID,
		Mode:           mode,
		Direction:      direction,
		Status:         status,
		StartedAt:      startedAt,
		EndedAt:        input.EndedAt,
		DurationMillis: input.DurationMillis,
	}

	if err := s.callLogRepo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to create call log: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordCallLog(string(status))
	}

	resp, err := s.toResponse(ctx, log)
	if err != nil {
		return nil, err
	}
	resp.TempID = input.TempID
	return resp, nil
}

// List returns the most recent call records involving the user, capped at
// the history limit, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*domain.CallLogResponse, error) {
	logs, err := s.callLogRepo.GetForUser(ctx, userID, constants.CallLogListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list call logs: %w", err)
	}

	// resolve all participants in one lookup
	idSet := make(map[uuid.UUID]bool)
	for _, log := range logs {
		idSet[log.CallerID] = true
		idSet[log.CalleeID] = true
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	summaries, err := s.userRepo.GetSummaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve participants: %w", err)
	}

	out := make([]*domain.CallLogResponse, 0, len(logs))
	for _, log := range logs {
		out = append(out, &domain.CallLogResponse{
			CallLogID:      log.CallLogID,
			Caller:         summaries[log.CallerID],
			Callee:         summaries[log.CalleeID],
			ConversationID: log.ConversationID,
			Mode:           log.Mode,
			Direction:      log.Direction,
			Status:         log.Status,
			StartedAt:      log.StartedAt,
			EndedAt:        log.EndedAt,
			DurationMillis: log.DurationMillis,
		})
	}

	return out, nil
}

func (s *Service) toResponse(ctx context.Context, log *domain.CallLog) (*domain.CallLogResponse, error) {
	summaries, err := s.userRepo.GetSummaries(ctx, []uuid.UUID{log.CallerID, log.CalleeID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve participants: %w", err)
	}

	return &domain.CallLogResponse{
		CallLogID:      log.CallLogID,
		Caller:         summaries[log.CallerID],
		Callee:         summaries[log.CalleeID],
		ConversationID: log.ConversationID,
		Mode:           log.Mode,
		Direction:      log.Direction,
		Status:         log.Status,
		StartedAt:      log.StartedAt,
		EndedAt:        log.EndedAt,
		DurationMillis: log.DurationMillis,
	}, nil
}
