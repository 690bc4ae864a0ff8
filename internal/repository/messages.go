package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourorg/teamchat/realtime-service/internal/models"
)

type MessageRepo struct {
	coll *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) *MessageRepo {
	return &MessageRepo{coll: db.Collection("messages")}
}

func (r *MessageRepo) InsertChannelMessage(ctx context.Context, m *models.ChannelMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

// CountChannelUnread counts messages in the channel newer than the
// watermark and not authored by the user.
func (r *MessageRepo) CountChannelUnread(ctx context.Context, userID, channelID string, after time.Time) (int64, error) {
	filter := bson.M{
		"channel_id": channelID,
		"author_id":  bson.M{"$ne": userID},
		"created_at": bson.M{"$gt": after},
	}
	return r.coll.CountDocuments(ctx, filter)
}

// ListChannelMessages returns the newest messages in chronological order.
func (r *MessageRepo) ListChannelMessages(ctx context.Context, channelID string, limit int64) ([]models.ChannelMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{"channel_id": channelID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.ChannelMessage
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
