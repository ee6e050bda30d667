package chat

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivansh47201/vartalap/internal/domain"
)

// Mocks

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Save(message *domain.Message) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *MockMessageRepository) GetByConversation(conversationID uuid.UUID, bucket, limit int, pageState []byte) ([]*domain.Message, []byte, error) {
	args := m.Called(conversationID, bucket, limit, pageState)
	var msgs []*domain.Message
	if args.Get(0) != nil {
		msgs = args.Get(0).([]*domain.Message)
	}
	var next []byte
	if args.Get(1) != nil {
		next = args.Get(1).([]byte)
	}
	return msgs, next, args.Error(2)
}

func (m *MockMessageRepository) MarkRead(conversationID uuid.UUID, bucket int, messageIDs []uuid.UUID) error {
	args := m.Called(conversationID, bucket, messageIDs)
	return args.Error(0)
}

type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) IsMember(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockConversationRepository) Touch(ctx context.Context, conversationID uuid.UUID) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
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

// fakeNotifier records hub emissions
type fakeNotifier struct {
	newMessages []*domain.MessageResponse
	readEvents  []*domain.MessagesReadEvent
}

func (f *fakeNotifier) EmitNewMessage(conversationID string, message *domain.MessageResponse) {
	f.newMessages = append(f.newMessages, message)
}

func (f *fakeNotifier) EmitMessagesRead(conversationID string, event *domain.MessagesReadEvent) {
	f.readEvents = append(f.readEvents, event)
}

func TestSendStoresAndNotifies(t *testing.T) {
	messageRepo := new(MockMessageRepository)
	convRepo := new(MockConversationRepository)
	userRepo := new(MockUserRepository)
	notifier := &fakeNotifier{}
	svc := NewService(messageRepo, convRepo, userRepo, notifier)

	sender := uuid.New()
	convID := uuid.New()

	convRepo.On("IsMember", mock.Anything, convID, sender).Return(true, nil)
	convRepo.On("Touch", mock.Anything, convID).Return(nil)
	messageRepo.On("Save", mock.AnythingOfType("*domain.Message")).Return(nil)
	userRepo.On("GetSummaries", mock.Anything, mock.Anything).Return(map[uuid.UUID]*domain.UserSummary{
		sender: {UserID: sender, Username: "shivansh"},
	}, nil)

	resp, err := svc.Send(context.Background(), sender, &domain.MessageCreate{
		ConversationID: convID,
		Content:        "hello",
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "text", resp.MessageType)
	assert.Equal(t, sender, resp.SenderID)
	require.NotNil(t, resp.Sender)

	require.Len(t, notifier.newMessages, 1)
	assert.Equal(t, resp.MessageID, notifier.newMessages[0].MessageID)
	messageRepo.AssertExpectations(t)
}

func TestSendRejectsNonMember(t *testing.T) {
	messageRepo := new(MockMessageRepository)
	convRepo := new(MockConversationRepository)
	svc := NewService(messageRepo, convRepo, new(MockUserRepository), nil)

	sender := uuid.New()
	convID := uuid.New()
	convRepo.On("IsMember", mock.Anything, convID, sender).Return(false, nil)

	_, err := svc.Send(context.Background(), sender, &domain.MessageCreate{
		ConversationID: convID,
		Content:        "hello",
	})

	assert.ErrorIs(t, err, ErrNotMember)
	messageRepo.AssertNotCalled(t, "Save", mock.Anything)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	svc := NewService(new(MockMessageRepository), new(MockConversationRepository), new(MockUserRepository), nil)

	_, err := svc.Send(context.Background(), uuid.New(), &domain.MessageCreate{
		ConversationID: uuid.New(),
		Content:        "   ",
	})

	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestHistoryPagination(t *testing.T) {
	messageRepo := new(MockMessageRepository)
	convRepo := new(MockConversationRepository)
	userRepo := new(MockUserRepository)
	svc := NewService(messageRepo, convRepo, userRepo, nil)

	reader := uuid.New()
	convID := uuid.New()
	sender := uuid.New()

	convRepo.On("IsMember", mock.Anything, convID, reader).Return(true, nil)
	messages := []*domain.Message{
		{MessageID: uuid.New(), ConversationID: convID, SenderID: sender, Content: "newest"},
		{MessageID: uuid.New(), ConversationID: convID, SenderID: sender, Content: "older"},
	}
	messageRepo.On("GetByConversation", convID, mock.AnythingOfType("int"), 20, []byte(nil)).
		Return(messages, []byte("next-page"), nil)
	userRepo.On("GetSummaries", mock.Anything, mock.Anything).Return(map[uuid.UUID]*domain.UserSummary{}, nil)

	page, err := svc.History(context.Background(), reader, &HistoryInput{ConversationID: convID})

	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "newest", page.Messages[0].Content)
	assert.True(t, page.HasMore)
	assert.NotEmpty(t, page.NextCursor)

	// the cursor round-trips
	bucket, state, err := decodeCursor(page.NextCursor)
	require.NoError(t, err)
	assert.NotZero(t, bucket)
	assert.Equal(t, []byte("next-page"), state)
}

func TestMarkReadNotifiesRoom(t *testing.T) {
	messageRepo := new(MockMessageRepository)
	convRepo := new(MockConversationRepository)
	notifier := &fakeNotifier{}
	svc := NewService(messageRepo, convRepo, new(MockUserRepository), notifier)

	reader := uuid.New()
	convID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	convRepo.On("IsMember", mock.Anything, convID, reader).Return(true, nil)
	messageRepo.On("MarkRead", convID, mock.AnythingOfType("int"), ids).Return(nil)

	require.NoError(t, svc.MarkRead(context.Background(), reader, convID, ids))

	require.Len(t, notifier.readEvents, 1)
	assert.Equal(t, reader, notifier.readEvents[0].ReaderID)
	assert.Equal(t, ids, notifier.readEvents[0].MessageIDs)
}

func TestMarkReadEmptyIsNoop(t *testing.T) {
	messageRepo := new(MockMessageRepository)
	svc := NewService(messageRepo, new(MockConversationRepository), new(MockUserRepository), nil)

	require.NoError(t, svc.MarkRead(context.Background(), uuid.New(), uuid.New(), nil))
	messageRepo.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything)
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := encodeCursor(202608, []byte{0x01, 0x02, 0xff})
	bucket, state, err := decodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, 202608, bucket)
	assert.Equal(t, []byte{0x01, 0x02, 0xff}, state)

	_, _, err = decodeCursor("garbage")
	assert.Error(t, err)
}
