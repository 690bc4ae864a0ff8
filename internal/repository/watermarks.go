package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourorg/teamchat/realtime-service/internal/models"
)

type WatermarkRepo struct {
	channelReads *mongo.Collection
	dmReads      *mongo.Collection
}

func NewWatermarkRepo(db *mongo.Database) *WatermarkRepo {
	return &WatermarkRepo{
		channelReads: db.Collection("channel_reads"),
		dmReads:      db.Collection("dm_reads"),
	}
}

func (r *WatermarkRepo) ChannelWatermark(ctx context.Context, userID, channelID string) (time.Time, error) {
	var wm models.ChannelReadWatermark
	err := r.channelReads.FindOne(ctx, bson.M{"user_id": userID, "channel_id": channelID}).Decode(&wm)
	if err == mongo.ErrNoDocuments {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return wm.LastReadAt, nil
}

// upsertOnce retries a single time on a duplicate-key error: two first-ever
// marks for the same key can race on the unique index, both taking the
// insert path; the loser's retry lands on the $max update instead.
func upsertOnce(run func() error) error {
	err := run()
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return run()
	}
	return err
}

// SetChannelWatermark upserts the (user, channel) watermark. $max keeps it
// monotonically non-decreasing even under rapid duplicate mark-read actions.
func (r *WatermarkRepo) SetChannelWatermark(ctx context.Context, userID, channelID string, t time.Time) error {
	filter := bson.M{"user_id": userID, "channel_id": channelID}
	update := bson.M{"$max": bson.M{"last_read_at": t}}
	return upsertOnce(func() error {
		_, err := r.channelReads.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		return err
	})
}

func (r *WatermarkRepo) DMWatermark(ctx context.Context, userID, otherUserID string) (time.Time, error) {
	var wm models.DMReadWatermark
	err := r.dmReads.FindOne(ctx, bson.M{"user_id": userID, "other_user_id": otherUserID}).Decode(&wm)
	if err == mongo.ErrNoDocuments {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return wm.LastReadAt, nil
}

func (r *WatermarkRepo) SetDMWatermark(ctx context.Context, userID, otherUserID string, t time.Time) error {
	filter := bson.M{"user_id": userID, "other_user_id": otherUserID}
	update := bson.M{"$max": bson.M{"last_read_at": t}}
	return upsertOnce(func() error {
		_, err := r.dmReads.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		return err
	})
}
