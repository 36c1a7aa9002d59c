package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type LinktreeRepository struct {
	col *mongo.Collection
}

var _ ports.LinktreeRepository = (*LinktreeRepository)(nil)

func (r *LinktreeRepository) Create(ctx context.Context, lt *domain.Linktree) error {
	_, err := r.col.InsertOne(ctx, lt)
	return translate(err)
}

func (r *LinktreeRepository) GetByID(ctx context.Context, id string) (*domain.Linktree, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *LinktreeRepository) GetBySlug(ctx context.Context, slug string) (*domain.Linktree, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *LinktreeRepository) ListByUser(ctx context.Context, userID string) ([]domain.Linktree, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

func (r *LinktreeRepository) Dump(ctx context.Context) ([]domain.Linktree, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.find(ctx, bson.M{}, opts)
}

// Update replaces the whole document; concurrent editors overwrite each other.
func (r *LinktreeRepository) Update(ctx context.Context, lt *domain.Linktree) error {
	if lt.Links == nil {
		lt.Links = []domain.Link{}
	}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": lt.ID}, lt)
	return translate(err)
}

func (r *LinktreeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return translate(err)
}

func (r *LinktreeRepository) UnsetDefault(ctx context.Context, userID, exceptID string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"userId": userID, "isDefault": true, "_id": bson.M{"$ne": exceptID}},
		bson.M{"$set": bson.M{"isDefault": false}},
	)
	return translate(err)
}

func (r *LinktreeRepository) findOne(ctx context.Context, filter bson.M) (*domain.Linktree, error) {
	var lt domain.Linktree
	err := r.col.FindOne(ctx, filter).Decode(&lt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	if lt.Links == nil {
		lt.Links = []domain.Link{}
	}
	return &lt, nil
}

func (r *LinktreeRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Linktree, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	var out []domain.Linktree
	if err := cur.All(ctx, &out); err != nil {
		return nil, translate(err)
	}
	return out, nil
}
