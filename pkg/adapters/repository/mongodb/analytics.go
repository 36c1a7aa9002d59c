package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type AnalyticsRepository struct {
	col *mongo.Collection
}

var _ ports.AnalyticsRepository = (*AnalyticsRepository)(nil)

func (r *AnalyticsRepository) Insert(ctx context.Context, ev *domain.AnalyticsEvent) error {
	_, err := r.col.InsertOne(ctx, ev)
	return translate(err)
}

func (r *AnalyticsRepository) Query(ctx context.Context, q domain.EventQuery) ([]domain.AnalyticsEvent, int64, error) {
	if len(q.LinktreeIDs) == 0 {
		return []domain.AnalyticsEvent{}, 0, nil
	}
	filter := eventFilter(q)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: 1}})
	if q.Limit > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * q.Limit)).SetLimit(int64(q.Limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, translate(err)
	}
	events := []domain.AnalyticsEvent{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, 0, translate(err)
	}
	return events, total, nil
}

func eventFilter(q domain.EventQuery) bson.M {
	filter := bson.M{"linktreeId": bson.M{"$in": q.LinktreeIDs}}
	if q.Start != nil || q.End != nil {
		ts := bson.M{}
		if q.Start != nil {
			ts["$gte"] = *q.Start
		}
		if q.End != nil {
			ts["$lte"] = *q.End
		}
		filter["timestamp"] = ts
	}
	return filter
}

func (r *AnalyticsRepository) DeleteByLinktree(ctx context.Context, linktreeID string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"linktreeId": linktreeID})
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}
