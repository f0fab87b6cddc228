package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xypp3/leetcode-battleroyal/internal/model"
)

func testRules() model.MatchRules {
	return model.MatchRules{
		MaxPlayers:       8,
		MaxRounds:        3,
		StartThreshold:   2,
		StartDelaySec:    10,
		MaxTimeSec:       240,
		AttackPenaltySec: 20,
		RoundDelaySec:    5,
	}
}

func newMatchmaker(roomRepo *MockRoomRepo, playerRepo *MockPlayerRepo, roomCache *MockRoomCache, sched *fakeScheduler) *MatchmakerService {
	return NewMatchmakerService(roomRepo, playerRepo, roomCache, sched, NewAuthService("test-secret"), testRules())
}

func TestJoinCreatesRoomWhenNoneOpen(t *testing.T) {
	roomRepo := new(MockRoomRepo)
	playerRepo := new(MockPlayerRepo)
	roomCache := new(MockRoomCache)
	sched := &fakeScheduler{}
	svc := newMatchmaker(roomRepo, playerRepo, roomCache, sched)

	roomRepo.On("FindWaiting", mock.Anything).Return([]*model.Room{}, nil)
	roomRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Room")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Room).ID = "room-1"
		}).Return(nil)
	roomCache.On("SetStatus", mock.Anything, "room-1", model.RoomWaiting).Return(nil)
	playerRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Player")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Player).ID = "player-1"
		}).Return(nil)
	playerRepo.On("CountByRoom", mock.Anything, "room-1").Return(int64(1), nil)

	resp, err := svc.Join(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, "room-1", resp.RoomID)
	assert.Equal(t, "player-1", resp.PlayerID)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, sched.tasks, "start must not be armed below threshold")
	roomRepo.AssertExpectations(t)
	playerRepo.AssertExpectations(t)
}

func TestJoinReusesWaitingRoomAndArmsStart(t *testing.T) {
	roomRepo := new(MockRoomRepo)
	playerRepo := new(MockPlayerRepo)
	roomCache := new(MockRoomCache)
	sched := &fakeScheduler{}
	svc := newMatchmaker(roomRepo, playerRepo, roomCache, sched)

	open := &model.Room{ID: "room-1", Status: model.RoomWaiting, Rules: testRules()}
	roomRepo.On("FindWaiting", mock.Anything).Return([]*model.Room{open}, nil)
	// First count is the capacity check, second is the threshold check after
	// the new player is persisted.
	playerRepo.On("CountByRoom", mock.Anything, "room-1").Return(int64(1), nil).Once()
	playerRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Player")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Player).ID = "player-2"
		}).Return(nil)
	playerRepo.On("CountByRoom", mock.Anything, "room-1").Return(int64(2), nil).Once()
	roomCache.On("ArmStart", mock.Anything, "room-1").Return(true, nil)

	resp, err := svc.Join(context.Background(), "bob")

	require.NoError(t, err)
	assert.Equal(t, "room-1", resp.RoomID)
	require.Len(t, sched.tasks, 1)
	assert.Equal(t, OpActivateRoom, sched.tasks[0].op)
	assert.Equal(t, float64(10), sched.tasks[0].delay.Seconds())
	roomRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestJoinDoesNotRearmStart(t *testing.T) {
	roomRepo := new(MockRoomRepo)
	playerRepo := new(MockPlayerRepo)
	roomCache := new(MockRoomCache)
	sched := &fakeScheduler{}
	svc := newMatchmaker(roomRepo, playerRepo, roomCache, sched)

	open := &model.Room{ID: "room-1", Status: model.RoomWaiting, Rules: testRules()}
	roomRepo.On("FindWaiting", mock.Anything).Return([]*model.Room{open}, nil)
	playerRepo.On("CountByRoom", mock.Anything, "room-1").Return(int64(2), nil).Once()
	playerRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Player")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Player).ID = "player-3"
		}).Return(nil)
	playerRepo.On("CountByRoom", mock.Anything, "room-1").Return(int64(3), nil).Once()
	roomCache.On("ArmStart", mock.Anything, "room-1").Return(false, nil)

	_, err := svc.Join(context.Background(), "carol")

	require.NoError(t, err)
	assert.Empty(t, sched.tasks, "an already-armed room must not be rescheduled")
}

func TestJoinSkipsFullRooms(t *testing.T) {
	roomRepo := new(MockRoomRepo)
	playerRepo := new(MockPlayerRepo)
	roomCache := new(MockRoomCache)
	sched := &fakeScheduler{}
	svc := newMatchmaker(roomRepo, playerRepo, roomCache, sched)

	full := &model.Room{ID: "room-full", Status: model.RoomWaiting, Rules: testRules()}
	roomRepo.On("FindWaiting", mock.Anything).Return([]*model.Room{full}, nil)
	playerRepo.On("CountByRoom", mock.Anything, "room-full").Return(int64(8), nil).Once()
	roomRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Room")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Room).ID = "room-2"
		}).Return(nil)
	roomCache.On("SetStatus", mock.Anything, "room-2", model.RoomWaiting).Return(nil)
	playerRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Player")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Player).ID = "player-9"
		}).Return(nil)
	playerRepo.On("CountByRoom", mock.Anything, "room-2").Return(int64(1), nil).Once()

	resp, err := svc.Join(context.Background(), "dave")

	require.NoError(t, err)
	assert.Equal(t, "room-2", resp.RoomID)
	roomRepo.AssertExpectations(t)
}

func TestJoinBroadcastsPlayerJoined(t *testing.T) {
	roomRepo := new(MockRoomRepo)
	playerRepo := new(MockPlayerRepo)
	roomCache := new(MockRoomCache)
	sched := &fakeScheduler{}
	svc := newMatchmaker(roomRepo, playerRepo, roomCache, sched)
	bc := &fakeBroadcaster{}
	svc.SetBroadcaster(bc)

	open := &model.Room{ID: "room-1", Status: model.RoomWaiting, Rules: testRules()}
	roomRepo.On("FindWaiting", mock.Anything).Return([]*model.Room{open}, nil)
	playerRepo.On("CountByRoom", mock.Anything, "room-1").Return(int64(0), nil).Once()
	playerRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Player")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Player).ID = "player-1"
		}).Return(nil)
	playerRepo.On("CountByRoom", mock.Anything, "room-1").Return(int64(1), nil).Once()

	_, err := svc.Join(context.Background(), "erin")

	require.NoError(t, err)
	assert.Equal(t, []string{"player_joined"}, bc.events)
}
