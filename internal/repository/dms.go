package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yourorg/teamchat/realtime-service/internal/models"
)

type DMRepo struct {
	coll *mongo.Collection
}

func NewDMRepo(db *mongo.Database) *DMRepo {
	return &DMRepo{coll: db.Collection("direct_messages")}
}

func (r *DMRepo) InsertDirectMessage(ctx context.Context, m *models.DirectMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

// CountUnreadFrom counts messages from sender to receiver newer than the
// receiver's watermark for that sender.
func (r *DMRepo) CountUnreadFrom(ctx context.Context, receiverID, senderID string, after time.Time) (int64, error) {
	filter := bson.M{
		"sender_id":   senderID,
		"receiver_id": receiverID,
		"created_at":  bson.M{"$gt": after},
	}
	return r.coll.CountDocuments(ctx, filter)
}

// DistinctSenders lists every user that has ever sent a DM to receiverID.
func (r *DMRepo) DistinctSenders(ctx context.Context, receiverID string) ([]string, error) {
	raw, err := r.coll.Distinct(ctx, "sender_id", bson.M{"receiver_id": receiverID})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// MarkRead flips the read flag on all unread messages from sender to
// receiver. The watermark is the unread-count authority; the flag is kept
// for the conversation list UI.
func (r *DMRepo) MarkRead(ctx context.Context, receiverID, senderID string) error {
	filter := bson.M{"sender_id": senderID, "receiver_id": receiverID, "read": false}
	_, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	return err
}
