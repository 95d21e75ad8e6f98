package repository

import (
	"context"
	"time"

	"github.com/yashrajoria/freelance-marketplace/services/notification-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const InboxCollection = "inbox"

type InboxRepository interface {
	EnsureIndexes(ctx context.Context) error
	// Insert reports false when the entry already exists for this event and
	// recipient.
	Insert(ctx context.Context, entry *models.InboxEntry) (bool, error)
	List(ctx context.Context, rtype models.RecipientType, recipientID int64, page, limit int) ([]models.InboxEntry, int64, error)
	CountUnread(ctx context.Context, rtype models.RecipientType, recipientID int64) (int64, error)
	MarkRead(ctx context.Context, rtype models.RecipientType, recipientID, orderID int64) (int64, error)
	MarkAllRead(ctx context.Context, rtype models.RecipientType, recipientID int64) (int64, error)
}

type mongoInboxRepo struct {
	collection *mongo.Collection
}

func NewMongoInboxRepo(db *mongo.Database) InboxRepository {
	return &mongoInboxRepo{collection: db.Collection(InboxCollection)}
}

func (r *mongoInboxRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "recipient_type", Value: 1}, {Key: "recipient_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_event_recipient"),
		},
		{
			Keys:    bson.D{{Key: "recipient_type", Value: 1}, {Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("recipient_created"),
		},
	})
	return err
}

func (r *mongoInboxRepo) Insert(ctx context.Context, entry *models.InboxEntry) (bool, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func recipientFilter(rtype models.RecipientType, recipientID int64) bson.M {
	return bson.M{"recipient_type": rtype, "recipient_id": recipientID}
}

func (r *mongoInboxRepo) List(ctx context.Context, rtype models.RecipientType, recipientID int64, page, limit int) ([]models.InboxEntry, int64, error) {
	filter := recipientFilter(rtype, recipientID)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	entries := []models.InboxEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *mongoInboxRepo) CountUnread(ctx context.Context, rtype models.RecipientType, recipientID int64) (int64, error) {
	filter := recipientFilter(rtype, recipientID)
	filter["is_read"] = false
	return r.collection.CountDocuments(ctx, filter)
}

func (r *mongoInboxRepo) MarkRead(ctx context.Context, rtype models.RecipientType, recipientID, orderID int64) (int64, error) {
	filter := recipientFilter(rtype, recipientID)
	filter["order_id"] = orderID
	filter["is_read"] = false
	res, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *mongoInboxRepo) MarkAllRead(ctx context.Context, rtype models.RecipientType, recipientID int64) (int64, error) {
	filter := recipientFilter(rtype, recipientID)
	filter["is_read"] = false
	res, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
