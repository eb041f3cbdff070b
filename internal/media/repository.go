package media

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"marketplace-service/internal/pipeline"
)

type Repo struct {
	col *mongo.Collection
}

func NewRepo(col *mongo.Collection) *Repo {
	return &Repo{col: col}
}

func (r *Repo) Insert(ctx context.Context, m *Media) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, m)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Media, error) {
	var m Media
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &pipeline.NotFoundError{Resource: "media", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) DeleteByID(ctx context.Context, id string) (*Media, error) {
	var m Media
	err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &pipeline.NotFoundError{Resource: "media", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
