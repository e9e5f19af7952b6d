package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"courtbook/pkg/config"
	"courtbook/pkg/model"
)

const (
	SequenceCollectionName = "BookingSequences"
)

// SequenceRepository mints per-day booking code sequence numbers.
type SequenceRepository interface {
	// Next atomically increments and returns the counter for dayKey
	// (YYYYMMDD), creating it at 1 on first use.
	Next(ctx context.Context, dayKey string) (int64, error)
}

type mongoSequenceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSequenceRepository(cfg *config.Config) SequenceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSequenceRepository{
		cfg:        cfg,
		collection: db.Collection(SequenceCollectionName),
	}
}

func (r *mongoSequenceRepository) Next(ctx context.Context, dayKey string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var seq model.BookingSequence
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": dayKey},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to advance booking sequence for %s: %w", dayKey, err)
	}

	return seq.Seq, nil
}
