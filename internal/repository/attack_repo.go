package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xypp3/leetcode-battleroyal/internal/model"
)

// AttackRepo stores the append-only attack event log. Records are never
// mutated after insert; they exist for replay and animation only.
type AttackRepo interface {
	Create(ctx context.Context, attack *model.Attack) error
	ListSince(ctx context.Context, roomID string, since time.Time) ([]*model.Attack, error)
}

type attackRepo struct {
	collection *mongo.Collection
}

func NewAttackRepo(db *mongo.Database) AttackRepo {
	return &attackRepo{
		collection: db.Collection("attacks"),
	}
}

func (r *attackRepo) Create(ctx context.Context, attack *model.Attack) error {
	if attack.ID == "" {
		attack.ID = primitive.NewObjectID().Hex()
	}

	_, err := r.collection.InsertOne(ctx, attack)
	return err
}

func (r *attackRepo) ListSince(ctx context.Context, roomID string, since time.Time) ([]*model.Attack, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"roomId":    roomID,
		"timestamp": bson.M{"$gt": since},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var attacks []*model.Attack
	if err = cursor.All(ctx, &attacks); err != nil {
		return nil, err
	}

	return attacks, nil
}
