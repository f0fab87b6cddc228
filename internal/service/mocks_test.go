package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xypp3/leetcode-battleroyal/internal/model"
)

// ============================================================================
// Shared mocks and fakes for the service tests
// ============================================================================

// MockRoomRepo implements repository.RoomRepo
type MockRoomRepo struct {
	mock.Mock
}

func (m *MockRoomRepo) Create(ctx context.Context, room *model.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomRepo) FindWaiting(ctx context.Context) ([]*model.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Room), args.Error(1)
}

func (m *MockRoomRepo) Activate(ctx context.Context, id string, startTime time.Time) (bool, error) {
	args := m.Called(ctx, id, startTime)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepo) Finish(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepo) AdvanceRound(ctx context.Context, id string, startTime time.Time) error {
	args := m.Called(ctx, id, startTime)
	return args.Error(0)
}

// MockPlayerRepo implements repository.PlayerRepo
type MockPlayerRepo struct {
	mock.Mock
}

func (m *MockPlayerRepo) Create(ctx context.Context, player *model.Player) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *MockPlayerRepo) GetByID(ctx context.Context, id string) (*model.Player, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Player), args.Error(1)
}

func (m *MockPlayerRepo) ListByRoom(ctx context.Context, roomID string) ([]*model.Player, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Player), args.Error(1)
}

func (m *MockPlayerRepo) CountByRoom(ctx context.Context, roomID string) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlayerRepo) StartPlaying(ctx context.Context, id, questionID string, timeSec int) error {
	args := m.Called(ctx, id, questionID, timeSec)
	return args.Error(0)
}

func (m *MockPlayerRepo) RecordSubmission(ctx context.Context, id, code string, testsPassed int, completedAt *time.Time) error {
	args := m.Called(ctx, id, code, testsPassed, completedAt)
	return args.Error(0)
}

func (m *MockPlayerRepo) ResetForNextChallenge(ctx context.Context, id, questionID string, timeSec int) error {
	args := m.Called(ctx, id, questionID, timeSec)
	return args.Error(0)
}

func (m *MockPlayerRepo) ReviveCompleted(ctx context.Context, id string, timeSec int) (bool, error) {
	args := m.Called(ctx, id, timeSec)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlayerRepo) ReduceTime(ctx context.Context, id string, seconds int) (int, error) {
	args := m.Called(ctx, id, seconds)
	return args.Int(0), args.Error(1)
}

func (m *MockPlayerRepo) SetTime(ctx context.Context, id string, seconds int) error {
	args := m.Called(ctx, id, seconds)
	return args.Error(0)
}

func (m *MockPlayerRepo) Eliminate(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlayerRepo) MarkWinner(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockAttackRepo implements repository.AttackRepo
type MockAttackRepo struct {
	mock.Mock
}

func (m *MockAttackRepo) Create(ctx context.Context, attack *model.Attack) error {
	args := m.Called(ctx, attack)
	return args.Error(0)
}

func (m *MockAttackRepo) ListSince(ctx context.Context, roomID string, since time.Time) ([]*model.Attack, error) {
	args := m.Called(ctx, roomID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Attack), args.Error(1)
}

// MockQuestionRepo implements repository.QuestionRepo
type MockQuestionRepo struct {
	mock.Mock
}

func (m *MockQuestionRepo) Create(ctx context.Context, question *model.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Question), args.Error(1)
}

func (m *MockQuestionRepo) GetAll(ctx context.Context) ([]*model.Question, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Question), args.Error(1)
}

func (m *MockQuestionRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuestionRepo) Random(ctx context.Context) (*model.Question, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Question), args.Error(1)
}

// MockRoomCache implements cache.RoomCache
type MockRoomCache struct {
	mock.Mock
}

func (m *MockRoomCache) SetStatus(ctx context.Context, roomID string, status model.RoomStatus) error {
	args := m.Called(ctx, roomID, status)
	return args.Error(0)
}

func (m *MockRoomCache) GetStatus(ctx context.Context, roomID string) (model.RoomStatus, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(model.RoomStatus), args.Error(1)
}

func (m *MockRoomCache) ArmStart(ctx context.Context, roomID string) (bool, error) {
	args := m.Called(ctx, roomID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomCache) Delete(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// fakeScheduler records scheduled tasks for assertion.
type scheduledTask struct {
	delay   time.Duration
	op      string
	payload interface{}
}

type fakeScheduler struct {
	tasks []scheduledTask
}

func (f *fakeScheduler) Schedule(ctx context.Context, delay time.Duration, op string, payload interface{}) error {
	f.tasks = append(f.tasks, scheduledTask{delay: delay, op: op, payload: payload})
	return nil
}

// fakeBroadcaster records emitted event types.
type fakeBroadcaster struct {
	events []string
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID, msgType string, payload interface{}) {
	f.events = append(f.events, msgType)
}

func (f *fakeBroadcaster) BroadcastToPlayer(roomID, playerID, msgType string, payload interface{}) {
	f.events = append(f.events, msgType)
}
