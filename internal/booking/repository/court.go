package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "courtbook/internal/booking/errors"
	"courtbook/pkg/config"
	"courtbook/pkg/model"
)

const (
	CourtCollectionName = "Courts"
)

// CourtRepository is the read-only view of courts this service needs.
type CourtRepository interface {
	FindByID(ctx context.Context, id string) (*model.Court, error)
}

type mongoCourtRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCourtRepository(cfg *config.Config) CourtRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCourtRepository{
		cfg:        cfg,
		collection: db.Collection(CourtCollectionName),
	}
}

func (r *mongoCourtRepository) FindByID(ctx context.Context, id string) (*model.Court, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	var court model.Court
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&court)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to find court: %w", err)
	}

	return &court, nil
}
