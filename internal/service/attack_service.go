package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/xypp3/leetcode-battleroyal/internal/cache"
	"github.com/xypp3/leetcode-battleroyal/internal/model"
	"github.com/xypp3/leetcode-battleroyal/internal/repository"
)

// AttackService resolves the system-triggered attack that follows every
// challenge completion: it drains a random opponent's clock, detects
// elimination and the single-survivor win, hands the attacker their next
// challenge, and arms the round advance when everyone left has completed.
type AttackService struct {
	roomRepo     repository.RoomRepo
	playerRepo   repository.PlayerRepo
	questionRepo repository.QuestionRepo
	attackRepo   repository.AttackRepo
	roomCache    cache.RoomCache
	sched        TaskScheduler
	broadcaster  Broadcaster
}

// NewAttackService creates a new attack service
func NewAttackService(
	roomRepo repository.RoomRepo,
	playerRepo repository.PlayerRepo,
	questionRepo repository.QuestionRepo,
	attackRepo repository.AttackRepo,
	roomCache cache.RoomCache,
	sched TaskScheduler,
) *AttackService {
	return &AttackService{
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
func (s *AttackService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// HandleResolveAttack adapts Resolve to a scheduled task delivery.
func (s *AttackService) HandleResolveAttack(ctx context.Context, payload json.RawMessage) error {
	var task ResolveAttackTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return err
	}
	return s.Resolve(ctx, task.PlayerID, task.RoomID)
}

// Resolve runs the full post-completion sequence on behalf of attackerID.
// Invoked only by the scheduler; duplicate deliveries are tolerated because
// every mutation re-checks its precondition.
func (s *AttackService) Resolve(ctx context.Context, attackerID, roomID string) error {
	attacker, err := s.playerRepo.GetByID(ctx, attackerID)
	if err != nil {
		return fmt.Errorf("failed to get attacker: %w", err)
	}
	if attacker == nil {
		return ErrPlayerNotFound
	}
	// Completion is the only state an attack launches from; a duplicate
	// delivery after the attacker was reset or eliminated is stale.
	if attacker.Status != model.PlayerCompleted {
		log.Printf("[Attack] attacker %s no longer completed, skipping resolution", attackerID)
		return nil
	}

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if room.Status == model.RoomFinished {
		log.Printf("[Attack] room %s already finished, skipping resolution", roomID)
		return nil
	}

	players, err := s.playerRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}

	var candidates []*model.Player
	for _, p := range survivors(players) {
		if p.ID != attackerID {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) > 0 {
		target := candidates[rand.Intn(len(candidates))]

		matchOver, err := s.strike(ctx, room, attackerID, target)
		if err != nil {
			return err
		}
		if matchOver {
			// The attacker won; no new question is assigned.
			return nil
		}
	}

	if err := s.resetAttacker(ctx, room, attackerID); err != nil {
		return err
	}

	return s.maybeArmRoundAdvance(ctx, room, attackerID)
}

// strike applies the time penalty to the target, records the attack event,
// and handles elimination. Returns true when the strike ended the match.
func (s *AttackService) strike(ctx context.Context, room *model.Room, attackerID string, target *model.Player) (bool, error) {
	newTime, err := s.playerRepo.ReduceTime(ctx, target.ID, room.Rules.AttackPenaltySec)
	if err != nil {
		return false, fmt.Errorf("failed to reduce time: %w", err)
	}

	// The event log is append-only and written regardless of outcome.
	attack := &model.Attack{
		RoomID:        room.ID,
		AttackerID:    attackerID,
		TargetID:      target.ID,
		Timestamp:     time.Now(),
		TimeReduction: room.Rules.AttackPenaltySec,
	}
	if err := s.attackRepo.Create(ctx, attack); err != nil {
		return false, fmt.Errorf("failed to record attack: %w", err)
	}

	log.Printf("[Attack] %s hit %s in room %s, %ds left", attackerID, target.ID, room.ID, newTime)
	s.broadcaster.BroadcastToRoom(room.ID, "attack_performed", map[string]interface{}{
		"attackerId":    attackerID,
		"targetId":      target.ID,
		"timeReduction": room.Rules.AttackPenaltySec,
	})

	if newTime > 0 {
		return false, nil
	}

	eliminated, err := s.playerRepo.Eliminate(ctx, target.ID)
	if err != nil {
		return false, fmt.Errorf("failed to eliminate target: %w", err)
	}
	if eliminated {
		log.Printf("[Attack] player %s eliminated in room %s", target.ID, room.ID)
		s.broadcaster.BroadcastToRoom(room.ID, "player_eliminated", map[string]string{
			"playerId": target.ID,
		})
	}

	// Fresh read: the survivor set must reflect this elimination and any
	// concurrent ones before a winner is declared.
	players, err := s.playerRepo.ListByRoom(ctx, room.ID)
	if err != nil {
		return false, fmt.Errorf("failed to list players: %w", err)
	}

	alive := survivors(players)
	if len(alive) != 1 {
		return false, nil
	}

	if err := crownWinner(ctx, s.roomRepo, s.playerRepo, s.roomCache, s.broadcaster, room.ID, alive[0].ID); err != nil {
		return false, err
	}
	return true, nil
}

// resetAttacker hands the attacker a fresh random challenge with a full
// clock and bumps their personal completion counter.
func (s *AttackService) resetAttacker(ctx context.Context, room *model.Room, attackerID string) error {
	questionID := fallbackQuestionTitle
	question, err := s.questionRepo.Random(ctx)
	if err != nil {
		return fmt.Errorf("failed to pick question: %w", err)
	}
	if question != nil {
		questionID = question.ID
	}

	if err := s.playerRepo.ResetForNextChallenge(ctx, attackerID, questionID, room.Rules.MaxTimeSec); err != nil {
		return fmt.Errorf("failed to reset attacker: %w", err)
	}

	s.broadcaster.BroadcastToPlayer(room.ID, attackerID, "next_question", map[string]string{
		"questionId": questionID,
	})

	return nil
}

// maybeArmRoundAdvance schedules the round controller once every remaining
// contender other than the just-reset attacker has completed their
// challenge.
func (s *AttackService) maybeArmRoundAdvance(ctx context.Context, room *model.Room, attackerID string) error {
	players, err := s.playerRepo.ListByRoom(ctx, room.ID)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}

	active := contenders(players)
	if len(active) <= 1 {
		return nil
	}

	for _, p := range active {
		if p.ID == attackerID {
			continue
		}
		if p.Status != model.PlayerCompleted {
			return nil
		}
	}

	delay := time.Duration(room.Rules.RoundDelaySec) * time.Second
	log.Printf("[Attack] all contenders in room %s completed, advancing round in %v", room.ID, delay)

	return s.sched.Schedule(ctx, delay, OpAdvanceRound, AdvanceRoundTask{RoomID: room.ID})
}
