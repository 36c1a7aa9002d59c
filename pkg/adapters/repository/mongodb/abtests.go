package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type ABTestRepository struct {
	col *mongo.Collection
}

var _ ports.ABTestRepository = (*ABTestRepository)(nil)

// activeProjection keeps counters off the visitor facing read.
var activeProjection = bson.M{
	"status":         1,
	"variants._id":   1,
	"variants.title": 1,
	"variants.url":   1,
}

func (r *ABTestRepository) Create(ctx context.Context, t *domain.ABTest) error {
	_, err := r.col.InsertOne(ctx, t)
	return translate(err)
}

func (r *ABTestRepository) GetByID(ctx context.Context, id string) (*domain.ABTest, error) {
	var t domain.ABTest
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *ABTestRepository) FindActiveByLink(ctx context.Context, linkID string) (*domain.ActiveTest, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "startDate", Value: -1}}).
		SetProjection(activeProjection)

	var t domain.ActiveTest
	err := r.col.FindOne(ctx, bson.M{"linkId": linkID, "status": domain.TestActive}, opts).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *ABTestRepository) ListByUser(ctx context.Context, userID string) ([]domain.ABTest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, translate(err)
	}
	out := []domain.ABTest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *ABTestRepository) UpdateStatus(ctx context.Context, id string, status domain.TestStatus, endDate *time.Time) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, statusUpdate(status, endDate, time.Now().UTC()))
	return translate(err)
}

func statusUpdate(status domain.TestStatus, endDate *time.Time, now time.Time) bson.M {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": now}}
	if endDate != nil {
		update["$set"].(bson.M)["endDate"] = *endDate
	} else {
		update["$unset"] = bson.M{"endDate": ""}
	}
	return update
}

// IncrementVariant uses the positional operator so the whole update is one
// atomic document write.
func (r *ABTestRepository) IncrementVariant(ctx context.Context, testID, variantID string, metric domain.MetricType) (bool, error) {
	filter, update := incrementUpdate(testID, variantID, metric)
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, translate(err)
	}
	return res.MatchedCount > 0, nil
}

func incrementUpdate(testID, variantID string, metric domain.MetricType) (bson.M, bson.M) {
	field := "variants.$.impressions"
	if metric == domain.MetricClick {
		field = "variants.$.clicks"
	}
	filter := bson.M{
		"_id":          testID,
		"status":       domain.TestActive,
		"variants._id": variantID,
	}
	return filter, bson.M{"$inc": bson.M{field: 1}}
}
