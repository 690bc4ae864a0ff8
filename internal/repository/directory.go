package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yourorg/teamchat/realtime-service/internal/apperr"
	"github.com/yourorg/teamchat/realtime-service/internal/models"
)

// DirectoryRepo reads users, memberships and channel metadata. Team and
// channel CRUD belongs to other services; this side only reads, except for
// the user status field which presence transitions own.
type DirectoryRepo struct {
	users    *mongo.Collection
	members  *mongo.Collection
	channels *mongo.Collection
}

func NewDirectoryRepo(db *mongo.Database) *DirectoryRepo {
	return &DirectoryRepo{
		users:    db.Collection("users"),
		members:  db.Collection("team_members"),
		channels: db.Collection("channels"),
	}
}

func (r *DirectoryRepo) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := r.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrUnknownUser
		}
		return nil, err
	}
	return &u, nil
}

func (r *DirectoryRepo) SetUserStatus(ctx context.Context, userID, status string) error {
	_, err := r.users.UpdateByID(ctx, userID, bson.M{"$set": bson.M{"status": status}})
	return err
}

func (r *DirectoryRepo) IsTeamMember(ctx context.Context, teamID, userID string) (bool, error) {
	n, err := r.members.CountDocuments(ctx, bson.M{"team_id": teamID, "user_id": userID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListTeamMembers resolves the team's membership to user records (id,
// username, status) for audience enumeration and mention resolution.
func (r *DirectoryRepo) ListTeamMembers(ctx context.Context, teamID string) ([]models.User, error) {
	cur, err := r.members.Find(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var memberships []models.TeamMember
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.UserID)
	}
	ucur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer ucur.Close(ctx)
	var users []models.User
	if err := ucur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *DirectoryRepo) GetChannel(ctx context.Context, channelID string) (*models.Channel, error) {
	var ch models.Channel
	if err := r.channels.FindOne(ctx, bson.M{"_id": channelID}).Decode(&ch); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

// ChannelsForUser lists every channel in every team the user belongs to,
// used by the all-unread-counts read path.
func (r *DirectoryRepo) ChannelsForUser(ctx context.Context, userID string) ([]models.Channel, error) {
	cur, err := r.members.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var memberships []models.TeamMember
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, nil
	}
	teamIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		teamIDs = append(teamIDs, m.TeamID)
	}
	ccur, err := r.channels.Find(ctx, bson.M{"team_id": bson.M{"$in": teamIDs}})
	if err != nil {
		return nil, err
	}
	defer ccur.Close(ctx)
	var channels []models.Channel
	if err := ccur.All(ctx, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}
