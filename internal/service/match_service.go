package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/xypp3/leetcode-battleroyal/internal/cache"
	"github.com/xypp3/leetcode-battleroyal/internal/model"
	"github.com/xypp3/leetcode-battleroyal/internal/repository"
)

// fallbackQuestionTitle is assigned when the question bank is empty so the
// match can still proceed; the client falls back to its built-in starter.
const fallbackQuestionTitle = "Two Sum"

// defaultTestCount is assumed when a player's question cannot be resolved.
const defaultTestCount = 3

// attackWindow is how far back the state projection includes attack events,
// which the client uses to trigger impact animations.
const attackWindow = 5 * time.Second

// MatchService drives the room and player lifecycles: scheduled activation,
// submissions, client-reported countdowns, and the read-only projections the
// presentation layer consumes.
type MatchService struct {
	roomRepo     repository.RoomRepo
	playerRepo   repository.PlayerRepo
	questionRepo repository.QuestionRepo
	attackRepo   repository.AttackRepo
	roomCache    cache.RoomCache
	sched        TaskScheduler
	broadcaster  Broadcaster
}

// NewMatchService creates a new match service
func NewMatchService(
	roomRepo repository.RoomRepo,
	playerRepo repository.PlayerRepo,
	questionRepo repository.QuestionRepo,
	attackRepo repository.AttackRepo,
	roomCache cache.RoomCache,
	sched TaskScheduler,
) *MatchService {
	return &MatchService{
		roomRepo:     roomRepo,
		playerRepo:   playerRepo,
		questionRepo: questionRepo,
		attackRepo:   attackRepo,
		roomCache:    roomCache,
		sched:        sched,
		broadcaster:  noopBroadcaster{},
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *MatchService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// HandleActivateRoom adapts ActivateRoom to a scheduled task delivery.
func (s *MatchService) HandleActivateRoom(ctx context.Context, payload json.RawMessage) error {
	var task ActivateRoomTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return err
	}
	return s.ActivateRoom(ctx, task.RoomID)
}

// ActivateRoom fires at the scheduled start time. Activation is guarded on
// the room still being in the waiting state, so duplicate or stale
// deliveries are silent no-ops.
func (s *MatchService) ActivateRoom(ctx context.Context, roomID string) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		log.Printf("[Match] activation for unknown room %s, skipping", roomID)
		return nil
	}

	activated, err := s.roomRepo.Activate(ctx, roomID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to activate room: %w", err)
	}
	if !activated {
		log.Printf("[Match] room %s no longer waiting, skipping activation", roomID)
		return nil
	}

	if err := s.roomCache.SetStatus(ctx, roomID, model.RoomActive); err != nil {
		log.Printf("[Match] failed to cache room %s status: %v", roomID, err)
	}

	players, err := s.playerRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}

	for _, player := range players {
		questionID, err := s.pickQuestionID(ctx)
		if err != nil {
			return fmt.Errorf("failed to pick question: %w", err)
		}
		if err := s.playerRepo.StartPlaying(ctx, player.ID, questionID, room.Rules.MaxTimeSec); err != nil {
			return fmt.Errorf("failed to start player %s: %w", player.ID, err)
		}
	}

	log.Printf("[Match] room %s active, round 1, %d players", roomID, len(players))
	s.broadcaster.BroadcastToRoom(roomID, "match_started", map[string]interface{}{
		"roomId":     roomID,
		"matchRound": 1,
	})

	return nil
}

// Submit records a player's submission. A submission that passes every test
// completes the current challenge and arms the immediate attack resolution;
// anything less leaves the player playing.
func (s *MatchService) Submit(ctx context.Context, playerID, code string, testsPassed int) error {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return ErrPlayerNotFound
	}

	room, err := s.roomRepo.GetByID(ctx, player.RoomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}

	completed := testsPassed >= s.totalTests(ctx, player)

	var completedAt *time.Time
	if completed {
		now := time.Now()
		completedAt = &now
	}

	if err := s.playerRepo.RecordSubmission(ctx, playerID, code, testsPassed, completedAt); err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}

	if completed {
		s.broadcaster.BroadcastToRoom(player.RoomID, "player_completed", map[string]string{
			"playerId": playerID,
		})

		// The attack is a system-triggered transition keyed off the
		// completion; the player never picks a target.
		if err := s.sched.Schedule(ctx, 0, OpResolveAttack, ResolveAttackTask{
			PlayerID: playerID,
			RoomID:   player.RoomID,
		}); err != nil {
			return fmt.Errorf("failed to schedule attack: %w", err)
		}
	}

	return nil
}

// ReportTime ingests the client-driven countdown. Only decreases are
// accepted, so a dishonest client can shorten its own clock but never extend
// it. Hitting zero eliminates the player in the same call.
func (s *MatchService) ReportTime(ctx context.Context, playerID string, timeRemaining int) error {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return ErrPlayerNotFound
	}

	if player.Out() {
		return nil
	}
	if timeRemaining >= player.TimeRemaining {
		return nil
	}

	if timeRemaining > 0 {
		return s.playerRepo.SetTime(ctx, playerID, timeRemaining)
	}

	eliminated, err := s.playerRepo.Eliminate(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to eliminate player: %w", err)
	}
	if !eliminated {
		return nil
	}

	log.Printf("[Match] player %s ran out of time", playerID)
	s.broadcaster.BroadcastToRoom(player.RoomID, "player_eliminated", map[string]string{
		"playerId": playerID,
	})

	return s.checkLastSurvivor(ctx, player.RoomID)
}

// checkLastSurvivor finishes the match when exactly one player is left
// standing. Computed from a fresh read so racing eliminations cannot crown
// two winners; the winner and finish transitions are themselves guarded.
func (s *MatchService) checkLastSurvivor(ctx context.Context, roomID string) error {
	players, err := s.playerRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}

	alive := survivors(players)
	if len(alive) != 1 {
		return nil
	}

	return crownWinner(ctx, s.roomRepo, s.playerRepo, s.roomCache, s.broadcaster, roomID, alive[0].ID)
}

// RoomState returns the projection the lobby and arena screens render.
// playerID may be empty; when set, the player's assigned question is
// resolved for display.
func (s *MatchService) RoomState(ctx context.Context, roomID, playerID string) (*model.RoomState, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	players, err := s.playerRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	var question *model.Question
	if playerID != "" {
		for _, p := range players {
			if p.ID == playerID && p.CurrentQuestionID != "" {
				question, err = s.questionRepo.GetByID(ctx, p.CurrentQuestionID)
				if err != nil {
					return nil, fmt.Errorf("failed to get question: %w", err)
				}
				break
			}
		}
	}

	attacks, err := s.attackRepo.ListSince(ctx, roomID, time.Now().Add(-attackWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to list attacks: %w", err)
	}

	return &model.RoomState{
		Room:          room,
		Players:       players,
		Question:      question,
		RecentAttacks: attacks,
	}, nil
}

// WinnerStatus reports the surviving players of a room.
func (s *MatchService) WinnerStatus(ctx context.Context, roomID string) (*model.WinnerStatus, error) {
	players, err := s.playerRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	alive := survivors(players)
	return &model.WinnerStatus{
		ActivePlayers: alive,
		GameOver:      len(alive) == 1,
	}, nil
}

// CurrentQuestion resolves the question assigned to a player.
func (s *MatchService) CurrentQuestion(ctx context.Context, playerID string) (*model.Question, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	if player.CurrentQuestionID == "" {
		return nil, ErrQuestionNotFound
	}

	question, err := s.questionRepo.GetByID(ctx, player.CurrentQuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question == nil {
		return nil, ErrQuestionNotFound
	}
	return question, nil
}

// RecentAttacks lists attack events inside the animation window.
func (s *MatchService) RecentAttacks(ctx context.Context, roomID string) ([]*model.Attack, error) {
	return s.attackRepo.ListSince(ctx, roomID, time.Now().Add(-attackWindow))
}

// totalTests resolves how many tests the player's current question carries.
func (s *MatchService) totalTests(ctx context.Context, player *model.Player) int {
	if player.CurrentQuestionID == "" {
		return defaultTestCount
	}
	question, err := s.questionRepo.GetByID(ctx, player.CurrentQuestionID)
	if err != nil || question == nil || len(question.TestCases) == 0 {
		return defaultTestCount
	}
	return len(question.TestCases)
}

// pickQuestionID draws a uniformly-random question, falling back to the
// default title when the bank is empty.
func (s *MatchService) pickQuestionID(ctx context.Context) (string, error) {
	question, err := s.questionRepo.Random(ctx)
	if err != nil {
		return "", err
	}
	if question == nil {
		return fallbackQuestionTitle, nil
	}
	return question.ID, nil
}
