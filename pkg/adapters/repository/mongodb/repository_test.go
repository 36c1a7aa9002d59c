package mongodb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
)

func TestIncrementUpdate(t *testing.T) {
	filter, update := incrementUpdate("t1", "v1", domain.MetricClick)
	assert.Equal(t, bson.M{"_id": "t1", "status": domain.TestActive, "variants._id": "v1"}, filter)
	assert.Equal(t, bson.M{"$inc": bson.M{"variants.$.clicks": 1}}, update)

	_, update = incrementUpdate("t1", "v1", domain.MetricImpression)
	assert.Equal(t, bson.M{"$inc": bson.M{"variants.$.impressions": 1}}, update)
}

func TestStatusUpdate(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	end := now.Add(-time.Minute)

	got := statusUpdate(domain.TestCompleted, &end, now)
	assert.Equal(t, bson.M{"$set": bson.M{"status": domain.TestCompleted, "updatedAt": now, "endDate": end}}, got)
	assert.NotContains(t, got, "$unset")

	got = statusUpdate(domain.TestActive, nil, now)
	assert.Equal(t, bson.M{
		"$set":   bson.M{"status": domain.TestActive, "updatedAt": now},
		"$unset": bson.M{"endDate": ""},
	}, got)
}

func TestEventFilter(t *testing.T) {
	ids := []string{"a", "b"}
	assert.Equal(t, bson.M{"linktreeId": bson.M{"$in": ids}}, eventFilter(domain.EventQuery{LinktreeIDs: ids}))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	got := eventFilter(domain.EventQuery{LinktreeIDs: ids, Start: &start, End: &end})
	assert.Equal(t, bson.M{"$gte": start, "$lte": end}, got["timestamp"])

	got = eventFilter(domain.EventQuery{LinktreeIDs: ids, Start: &start})
	assert.Equal(t, bson.M{"$gte": start}, got["timestamp"])
}

func TestIndexModels(t *testing.T) {
	models := indexModels()
	assert.Contains(t, models, colLinktrees)
	assert.Contains(t, models, colAnalytics)
	assert.Contains(t, models, colABTests)
	assert.Contains(t, models, colUsers)

	slug := models[colLinktrees][0]
	assert.Equal(t, bson.D{{Key: "slug", Value: 1}}, slug.Keys)
	if assert.NotNil(t, slug.Options.Unique) {
		assert.True(t, *slug.Options.Unique)
	}
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(context.DeadlineExceeded), domain.ErrTimeout)
	assert.ErrorIs(t, translate(mongo.ErrClientDisconnected), domain.ErrUnavailable)

	canceled := translate(fmt.Errorf("query: %w", context.Canceled))
	assert.ErrorIs(t, canceled, context.Canceled)
	assert.NotErrorIs(t, canceled, domain.ErrTimeout)
	assert.Equal(t, domain.KindInternal, domain.KindOf(canceled))

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translate(dup), domain.ErrConflict)

	assert.Equal(t, domain.KindInternal, domain.KindOf(translate(errors.New("boom"))))
}
