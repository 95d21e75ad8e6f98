package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/yashrajoria/freelance-marketplace/services/notification-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const ns = "notifications.inbox"

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestInsert_Success(t *testing.T) {
	mt := newMock(t)
	mt.Run("written", func(mt *mtest.T) {
		repo := repository.NewMongoInboxRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		orderID := int64(5)
		entry := &models.InboxEntry{EventID: "e-1", RecipientType: models.RecipientCustomer, RecipientID: 10, OrderID: &orderID, Message: "hi"}
		inserted, err := repo.Insert(context.Background(), entry)

		require.NoError(mt, err)
		assert.True(mt, inserted)
		assert.False(mt, entry.CreatedAt.IsZero())
	})
}

func TestInsert_DuplicateIsSkipped(t *testing.T) {
	mt := newMock(t)
	mt.Run("duplicate", func(mt *mtest.T) {
		repo := repository.NewMongoInboxRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: notifications.inbox index: uniq_event_recipient",
		}))

		inserted, err := repo.Insert(context.Background(), &models.InboxEntry{EventID: "e-1", RecipientType: models.RecipientProvider, RecipientID: 20})

		require.NoError(mt, err)
		assert.False(mt, inserted)
	})
}

func TestInsert_OtherWriteErrorFails(t *testing.T) {
	mt := newMock(t)
	mt.Run("write error", func(mt *mtest.T) {
		repo := repository.NewMongoInboxRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 121, Message: "document failed validation"}))

		_, err := repo.Insert(context.Background(), &models.InboxEntry{EventID: "e-2"})

		assert.Error(mt, err)
	})
}

func TestList_NewestFirstWithTotal(t *testing.T) {
	mt := newMock(t)
	mt.Run("list", func(mt *mtest.T) {
		repo := repository.NewMongoInboxRepo(mt.DB)
		now := time.Now().UTC().Truncate(time.Millisecond)

		first := mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "event_id", Value: "e-2"},
			{Key: "recipient_type", Value: "customer"},
			{Key: "recipient_id", Value: int64(10)},
			{Key: "order_id", Value: int64(5)},
			{Key: "message", Value: "Order 5 status updated to in_progress."},
			{Key: "is_read", Value: false},
			{Key: "created_at", Value: now},
		}, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "event_id", Value: "e-1"},
			{Key: "recipient_type", Value: "customer"},
			{Key: "recipient_id", Value: int64(10)},
			{Key: "order_id", Value: nil},
			{Key: "message", Value: "Maintenance tonight"},
			{Key: "is_read", Value: true},
			{Key: "created_at", Value: now.Add(-time.Hour)},
		})
		count := mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}})
		mt.AddMockResponses(first, count)

		entries, total, err := repo.List(context.Background(), models.RecipientCustomer, 10, 1, 20)

		require.NoError(mt, err)
		assert.Equal(mt, int64(2), total)
		require.Len(mt, entries, 2)
		assert.Equal(mt, "e-2", entries[0].EventID)
		require.NotNil(mt, entries[0].OrderID)
		assert.Equal(mt, int64(5), *entries[0].OrderID)
		assert.Nil(mt, entries[1].OrderID)
	})
}

func TestCountUnread(t *testing.T) {
	mt := newMock(t)
	mt.Run("count", func(mt *mtest.T) {
		repo := repository.NewMongoInboxRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))

		n, err := repo.CountUnread(context.Background(), models.RecipientProvider, 20)

		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})
}

func TestMarkRead_ReturnsModified(t *testing.T) {
	mt := newMock(t)
	mt.Run("mark read", func(mt *mtest.T) {
		repo := repository.NewMongoInboxRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(2)},
			bson.E{Key: "nModified", Value: int32(2)},
		))

		n, err := repo.MarkRead(context.Background(), models.RecipientCustomer, 10, 5)

		require.NoError(mt, err)
		assert.Equal(mt, int64(2), n)
	})
}

func TestMarkAllRead_NothingUnread(t *testing.T) {
	mt := newMock(t)
	mt.Run("mark all", func(mt *mtest.T) {
		repo := repository.NewMongoInboxRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(0)},
			bson.E{Key: "nModified", Value: int32(0)},
		))

		n, err := repo.MarkAllRead(context.Background(), models.RecipientCustomer, 10)

		require.NoError(mt, err)
		assert.Zero(mt, n)
	})
}

func TestEnsureIndexes(t *testing.T) {
	mt := newMock(t)
	mt.Run("indexes", func(mt *mtest.T) {
		repo := repository.NewMongoInboxRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, repo.EnsureIndexes(context.Background()))
	})
}
