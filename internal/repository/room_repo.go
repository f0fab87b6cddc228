package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xypp3/leetcode-battleroyal/internal/model"
)

// RoomRepo persists match rooms. Status transitions are precondition-guarded
// updates so that racing scheduled tasks degrade to silent no-ops: a
// transition reports whether it actually matched a document.
type RoomRepo interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	FindWaiting(ctx context.Context) ([]*model.Room, error)
	Activate(ctx context.Context, id string, startTime time.Time) (bool, error)
	Finish(ctx context.Context, id string) (bool, error)
	AdvanceRound(ctx context.Context, id string, startTime time.Time) error
}

type roomRepo struct {
	collection *mongo.Collection
}

func NewRoomRepo(db *mongo.Database) RoomRepo {
	return &roomRepo{
		collection: db.Collection("rooms"),
	}
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room) error {
	if room.ID == "" {
		room.ID = primitive.NewObjectID().Hex()
	}
	room.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, room)
	return err
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Room not found
		}
		return nil, err
	}

	return &room, nil
}

func (r *roomRepo) FindWaiting(ctx context.Context) ([]*model.Room, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": model.RoomWaiting})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rooms []*model.Room
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}

	return rooms, nil
}

// Activate moves a room from waiting to active and opens round 1. The
// waiting filter makes duplicate activation attempts no-ops.
func (r *roomRepo) Activate(ctx context.Context, id string, startTime time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.RoomWaiting},
		bson.M{"$set": bson.M{
			"status":     model.RoomActive,
			"startTime":  startTime,
			"matchRound": 1,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// Finish marks a room terminal. Finished rooms are never mutated again, so
// the filter excludes them and a second finish is a no-op.
func (r *roomRepo) Finish(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": model.RoomFinished}},
		bson.M{"$set": bson.M{"status": model.RoomFinished}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *roomRepo) AdvanceRound(ctx context.Context, id string, startTime time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.RoomActive},
		bson.M{
			"$set": bson.M{"startTime": startTime},
			"$inc": bson.M{"matchRound": 1},
		},
	)
	return err
}
