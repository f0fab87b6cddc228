package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xypp3/leetcode-battleroyal/internal/model"
)

type matchFixture struct {
	roomRepo     *MockRoomRepo
	playerRepo   *MockPlayerRepo
	questionRepo *MockQuestionRepo
	attackRepo   *MockAttackRepo
	roomCache    *MockRoomCache
	sched        *fakeScheduler
	bc           *fakeBroadcaster
	svc          *MatchService
}

func newMatchFixture() *matchFixture {
	f := &matchFixture{
		roomRepo:     new(MockRoomRepo),
		playerRepo:   new(MockPlayerRepo),
		questionRepo: new(MockQuestionRepo),
		attackRepo:   new(MockAttackRepo),
		roomCache:    new(MockRoomCache),
		sched:        &fakeScheduler{},
		bc:           &fakeBroadcaster{},
	}
	f.svc = NewMatchService(f.roomRepo, f.playerRepo, f.questionRepo, f.attackRepo, f.roomCache, f.sched)
	f.svc.SetBroadcaster(f.bc)
	return f
}

func threeCaseQuestion(id string) *model.Question {
	return &model.Question{
		ID:    id,
		Title: "Two Sum",
		TestCases: []model.TestCase{
			{Input: []interface{}{1}, Expected: 1},
			{Input: []interface{}{2}, Expected: 2},
			{Input: []interface{}{3}, Expected: 3},
		},
	}
}

func TestActivateRoomAssignsQuestionsToEveryPlayer(t *testing.T) {
	f := newMatchFixture()
	room := &model.Room{ID: "room-1", Status: model.RoomWaiting, Rules: testRules()}

	f.roomRepo.On("GetByID", mock.Anything, "room-1").Return(room, nil)
	f.roomRepo.On("Activate", mock.Anything, "room-1", mock.AnythingOfType("time.Time")).Return(true, nil)
	f.roomCache.On("SetStatus", mock.Anything, "room-1", model.RoomActive).Return(nil)
	f.playerRepo.On("ListByRoom", mock.Anything, "room-1").Return([]*model.Player{
		{ID: "p1", RoomID: "room-1", Status: model.PlayerWaiting},
		{ID: "p2", RoomID: "room-1", Status: model.PlayerWaiting},
	}, nil)
	f.questionRepo.On("Random", mock.Anything).Return(threeCaseQuestion("q1"), nil)
	f.playerRepo.On("StartPlaying", mock.Anything, "p1", "q1", 240).Return(nil)
	f.playerRepo.On("StartPlaying", mock.Anything, "p2", "q1", 240).Return(nil)

	err := f.svc.ActivateRoom(context.Background(), "room-1")

	require.NoError(t, err)
	f.playerRepo.AssertExpectations(t)
	assert.Equal(t, []string{"match_started"}, f.bc.events)
}

func TestActivateRoomIsIdempotent(t *testing.T) {
	f := newMatchFixture()
	room := &model.Room{ID: "room-1", Status: model.RoomActive, Rules: testRules()}

	f.roomRepo.On("GetByID", mock.Anything, "room-1").Return(room, nil)
	f.roomRepo.On("Activate", mock.Anything, "room-1", mock.AnythingOfType("time.Time")).Return(false, nil)

	err := f.svc.ActivateRoom(context.Background(), "room-1")

	require.NoError(t, err)
	f.playerRepo.AssertNotCalled(t, "StartPlaying", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.bc.events)
}

func TestActivateRoomUnknownRoomIsNoop(t *testing.T) {
	f := newMatchFixture()

	f.roomRepo.On("GetByID", mock.Anything, "gone").Return(nil, nil)

	err := f.svc.ActivateRoom(context.Background(), "gone")

	require.NoError(t, err)
	f.roomRepo.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything)
}

func TestActivateRoomFallsBackWhenBankEmpty(t *testing.T) {
	f := newMatchFixture()
	room := &model.Room{ID: "room-1", Status: model.RoomWaiting, Rules: testRules()}

	f.roomRepo.On("GetByID", mock.Anything, "room-1").Return(room, nil)
	f.roomRepo.On("Activate", mock.Anything, "room-1", mock.AnythingOfType("time.Time")).Return(true, nil)
	f.roomCache.On("SetStatus", mock.Anything, "room-1", model.RoomActive).Return(nil)
	f.playerRepo.On("ListByRoom", mock.Anything, "room-1").Return([]*model.Player{
		{ID: "p1", RoomID: "room-1", Status: model.PlayerWaiting},
	}, nil)
	f.questionRepo.On("Random", mock.Anything).Return(nil, nil)
	f.playerRepo.On("StartPlaying", mock.Anything, "p1", "Two Sum", 240).Return(nil)

	err := f.svc.ActivateRoom(context.Background(), "room-1")

	require.NoError(t, err)
	f.playerRepo.AssertExpectations(t)
}

func TestSubmitPartialResultKeepsPlaying(t *testing.T) {
	f := newMatchFixture()
	player := &model.Player{ID: "p1", RoomID: "room-1", Status: model.PlayerPlaying, CurrentQuestionID: "q1"}
	room := &model.Room{ID: "room-1", Status: model.RoomActive, Rules: testRules()}

	f.playerRepo.On("GetByID", mock.Anything, "p1").Return(player, nil)
	f.roomRepo.On("GetByID", mock.Anything, "room-1").Return(room, nil)
	f.questionRepo.On("GetByID", mock.Anything, "q1").Return(threeCaseQuestion("q1"), nil)
	f.playerRepo.On("RecordSubmission", mock.Anything, "p1", "code", 2,
		mock.MatchedBy(func(at *time.Time) bool { return at == nil })).Return(nil)

	err := f.svc.Submit(context.Background(), "p1", "code", 2)

	require.NoError(t, err)
	assert.Empty(t, f.sched.tasks, "a partial pass must not trigger an attack")
	assert.Empty(t, f.bc.events)
}

func TestSubmitFullPassSchedulesAttack(t *testing.T) {
	f := newMatchFixture()
	player := &model.Player{ID: "p1", RoomID: "room-1", Status: model.PlayerPlaying, CurrentQuestionID: "q1"}
	room := &model.Room{ID: "room-1", Status: model.RoomActive, Rules: testRules()}

	f.playerRepo.On("GetByID", mock.Anything, "p1").Return(player, nil)
	f.roomRepo.On("GetByID", mock.Anything, "room-1").Return(room, nil)
	f.questionRepo.On("GetByID", mock.Anything, "q1").Return(threeCaseQuestion("q1"), nil)
	f.playerRepo.On("RecordSubmission", mock.Anything, "p1", "code", 3,
		mock.MatchedBy(func(at *time.Time) bool { return at != nil })).Return(nil)

	err := f.svc.Submit(context.Background(), "p1", "code", 3)

	require.NoError(t, err)
	require.Len(t, f.sched.tasks, 1)
	assert.Equal(t, OpResolveAttack, f.sched.tasks[0].op)
	assert.Equal(t, time.Duration(0), f.sched.tasks[0].delay)
	assert.Equal(t, []string{"player_completed"}, f.bc.events)
}

func TestSubmitUnknownPlayer(t *testing.T) {
	f := newMatchFixture()

	f.playerRepo.On("GetByID", mock.Anything, "ghost").Return(nil, nil)

	err := f.svc.Submit(context.Background(), "ghost", "code", 3)

	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestReportTimeIgnoresIncreases(t *testing.T) {
	f := newMatchFixture()
	player := &model.Player{ID: "p1", RoomID: "room-1", Status: model.PlayerPlaying, TimeRemaining: 100}

	f.playerRepo.On("GetByID", mock.Anything, "p1").Return(player, nil)

	err := f.svc.ReportTime(context.Background(), "p1", 150)

	require.NoError(t, err)
	f.playerRepo.AssertNotCalled(t, "SetTime", mock.Anything, mock.Anything, mock.Anything)
}

func TestReportTimeAcceptsDecreases(t *testing.T) {
	f := newMatchFixture()
	player := &model.Player{ID: "p1", RoomID: "room-1", Status: model.PlayerPlaying, TimeRemaining: 100}

	f.playerRepo.On("GetByID", mock.Anything, "p1").Return(player, nil)
	f.playerRepo.On("SetTime", mock.Anything, "p1", 80).Return(nil)

	err := f.svc.ReportTime(context.Background(), "p1", 80)

	require.NoError(t, err)
	f.playerRepo.AssertExpectations(t)
}

func TestReportTimeIgnoresOutPlayers(t *testing.T) {
	f := newMatchFixture()
	player := &model.Player{ID: "p1", RoomID: "room-1", Status: model.PlayerEliminated, TimeRemaining: 0}

	f.playerRepo.On("GetByID", mock.Anything, "p1").Return(player, nil)

	err := f.svc.ReportTime(context.Background(), "p1", 0)

	require.NoError(t, err)
	f.playerRepo.AssertNotCalled(t, "Eliminate", mock.Anything, mock.Anything)
}

func TestReportTimeZeroEliminatesAndCrownsWinner(t *testing.T) {
	f := newMatchFixture()
	player := &model.Player{ID: "p1", RoomID: "room-1", Status: model.PlayerPlaying, TimeRemaining: 30}

	f.playerRepo.On("GetByID", mock.Anything, "p1").Return(player, nil)
	f.playerRepo.On("Eliminate", mock.Anything, "p1").Return(true, nil)
	f.playerRepo.On("ListByRoom", mock.Anything, "room-1").Return([]*model.Player{
		{ID: "p1", Status: model.PlayerEliminated},
		{ID: "p2", Status: model.PlayerPlaying},
	}, nil)
	f.playerRepo.On("MarkWinner", mock.Anything, "p2").Return(true, nil)
	f.roomRepo.On("Finish", mock.Anything, "room-1").Return(true, nil)
	f.roomCache.On("SetStatus", mock.Anything, "room-1", model.RoomFinished).Return(nil)

	err := f.svc.ReportTime(context.Background(), "p1", 0)

	require.NoError(t, err)
	f.playerRepo.AssertExpectations(t)
	f.roomRepo.AssertExpectations(t)
	assert.Equal(t, []string{"player_eliminated", "match_finished"}, f.bc.events)
}

func TestReportTimeZeroWithSeveralSurvivorsContinues(t *testing.T) {
	f := newMatchFixture()
	player := &model.Player{ID: "p1", RoomID: "room-1", Status: model.PlayerPlaying, TimeRemaining: 30}

	f.playerRepo.On("GetByID", mock.Anything, "p1").Return(player, nil)
	f.playerRepo.On("Eliminate", mock.Anything, "p1").Return(true, nil)
	f.playerRepo.On("ListByRoom", mock.Anything, "room-1").Return([]*model.Player{
		{ID: "p1", Status: model.PlayerEliminated},
		{ID: "p2", Status: model.PlayerPlaying},
		{ID: "p3", Status: model.PlayerCompleted},
	}, nil)

	err := f.svc.ReportTime(context.Background(), "p1", 0)

	require.NoError(t, err)
	f.playerRepo.AssertNotCalled(t, "MarkWinner", mock.Anything, mock.Anything)
	f.roomRepo.AssertNotCalled(t, "Finish", mock.Anything, mock.Anything)
}

func TestWinnerStatus(t *testing.T) {
	f := newMatchFixture()

	f.playerRepo.On("ListByRoom", mock.Anything, "room-1").Return([]*model.Player{
		{ID: "p1", Status: model.PlayerEliminated},
		{ID: "p2", Status: model.PlayerWinner},
	}, nil)

	status, err := f.svc.WinnerStatus(context.Background(), "room-1")

	require.NoError(t, err)
	assert.True(t, status.GameOver)
	require.Len(t, status.ActivePlayers, 1)
	assert.Equal(t, "p2", status.ActivePlayers[0].ID)
}

func TestCurrentQuestionBeforeAssignment(t *testing.T) {
	f := newMatchFixture()
	player := &model.Player{ID: "p1", RoomID: "room-1", Status: model.PlayerWaiting}

	f.playerRepo.On("GetByID", mock.Anything, "p1").Return(player, nil)

	_, err := f.svc.CurrentQuestion(context.Background(), "p1")

	assert.ErrorIs(t, err, ErrQuestionNotFound)
}
