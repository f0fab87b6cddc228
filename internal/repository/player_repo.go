package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xypp3/leetcode-battleroyal/internal/model"
)

// PlayerRepo persists players. Mutators patch individual fields ($set/$inc)
// rather than replacing documents, so concurrent updates touching disjoint
// fields (e.g. an attack's time reduction vs. a submission's status change)
// never overwrite each other.
type PlayerRepo interface {
	Create(ctx context.Context, player *model.Player) error
	GetByID(ctx context.Context, id string) (*model.Player, error)
	ListByRoom(ctx context.Context, roomID string) ([]*model.Player, error)
	CountByRoom(ctx context.Context, roomID string) (int64, error)

	StartPlaying(ctx context.Context, id, questionID string, timeSec int) error
	RecordSubmission(ctx context.Context, id, code string, testsPassed int, completedAt *time.Time) error
	ResetForNextChallenge(ctx context.Context, id, questionID string, timeSec int) error
	ReviveCompleted(ctx context.Context, id string, timeSec int) (bool, error)

	ReduceTime(ctx context.Context, id string, seconds int) (int, error)
	SetTime(ctx context.Context, id string, seconds int) error
	Eliminate(ctx context.Context, id string) (bool, error)
	MarkWinner(ctx context.Context, id string) (bool, error)
}

type playerRepo struct {
	collection *mongo.Collection
}

func NewPlayerRepo(db *mongo.Database) PlayerRepo {
	return &playerRepo{
		collection: db.Collection("players"),
	}
}

func (r *playerRepo) Create(ctx context.Context, player *model.Player) error {
	if player.ID == "" {
		player.ID = primitive.NewObjectID().Hex()
	}
	player.JoinedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, player)
	return err
}

func (r *playerRepo) GetByID(ctx context.Context, id string) (*model.Player, error) {
	var player model.Player
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&player)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Player not found
		}
		return nil, err
	}

	return &player, nil
}

func (r *playerRepo) ListByRoom(ctx context.Context, roomID string) ([]*model.Player, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var players []*model.Player
	if err = cursor.All(ctx, &players); err != nil {
		return nil, err
	}

	return players, nil
}

func (r *playerRepo) CountByRoom(ctx context.Context, roomID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"roomId": roomID})
}

// StartPlaying puts a player into the playing state with a fresh question
// and a full time budget. Used at room activation.
func (r *playerRepo) StartPlaying(ctx context.Context, id, questionID string, timeSec int) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":              model.PlayerPlaying,
			"timeRemaining":       timeSec,
			"challengesCompleted": 0,
			"currentQuestionId":   questionID,
		}},
	)
	return err
}

// RecordSubmission stores the submitted code and test result. A non-nil
// completedAt marks the player completed; otherwise they stay playing.
func (r *playerRepo) RecordSubmission(ctx context.Context, id, code string, testsPassed int, completedAt *time.Time) error {
	set := bson.M{
		"code":        code,
		"testsPassed": testsPassed,
		"status":      model.PlayerPlaying,
	}
	update := bson.M{"$set": set}
	if completedAt != nil {
		set["status"] = model.PlayerCompleted
		set["completionTime"] = *completedAt
	} else {
		update["$unset"] = bson.M{"completionTime": ""}
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// ResetForNextChallenge hands the player a new question after their attack
// resolved: code and completion markers cleared, personal challenge counter
// incremented, time budget refilled.
func (r *playerRepo) ResetForNextChallenge(ctx context.Context, id, questionID string, timeSec int) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"status":            model.PlayerPlaying,
				"timeRemaining":     timeSec,
				"currentQuestionId": questionID,
				"testsPassed":       0,
			},
			"$unset": bson.M{
				"code":           "",
				"completionTime": "",
				"lastAttackTime": "",
			},
			"$inc": bson.M{"challengesCompleted": 1},
		},
	)
	return err
}

// ReviveCompleted moves a completed player back to playing with a fresh time
// budget at a round boundary. Players not in the completed state are left
// untouched.
func (r *playerRepo) ReviveCompleted(ctx context.Context, id string, timeSec int) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.PlayerCompleted},
		bson.M{"$set": bson.M{
			"status":        model.PlayerPlaying,
			"timeRemaining": timeSec,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ReduceTime atomically subtracts seconds from the player's time budget,
// flooring at zero, and returns the new value. The aggregation-pipeline
// update keeps read-modify-write out of the application.
func (r *playerRepo) ReduceTime(ctx context.Context, id string, seconds int) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"timeRemaining": bson.M{
				"$max": bson.A{0, bson.M{"$subtract": bson.A{"$timeRemaining", seconds}}},
			},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var player model.Player
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&player)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return player.TimeRemaining, nil
}

func (r *playerRepo) SetTime(ctx context.Context, id string, seconds int) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"timeRemaining": seconds}},
	)
	return err
}

// Eliminate takes a player out of the match. The filter skips players who
// are already out, so duplicate deliveries cannot re-eliminate a winner.
func (r *playerRepo) Eliminate(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$nin": bson.A{model.PlayerEliminated, model.PlayerWinner}}},
		bson.M{"$set": bson.M{
			"status":        model.PlayerEliminated,
			"timeRemaining": 0,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MarkWinner declares the sole survivor. Guarded the same way as Eliminate
// so two racing resolutions cannot both crown the player.
func (r *playerRepo) MarkWinner(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$nin": bson.A{model.PlayerEliminated, model.PlayerWinner}}},
		bson.M{"$set": bson.M{"status": model.PlayerWinner}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
