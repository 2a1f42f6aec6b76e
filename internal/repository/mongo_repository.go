package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Dhruvipatel1708/chatbot/internal/database"
	"github.com/Dhruvipatel1708/chatbot/internal/model"
)

type mongoRepository struct {
	col *mongo.Collection
	now func() time.Time
}

// NewMongoRepository keeps one document per session with its messages inline.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		col: db.Collection(database.SessionsCollection),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func ownerFilter(ownerID, sessionID string) bson.M {
	return bson.M{"user_id": ownerID, "session_id": sessionID}
}

func (r *mongoRepository) CreateSession(ctx context.Context, session *model.Session) (model.CreateStatus, error) {
	doc := session.Clone()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.StatusExists, nil
		}
		return "", fmt.Errorf("could not insert session: %w", err)
	}
	return model.StatusCreated, nil
}

func (r *mongoRepository) GetSession(ctx context.Context, ownerID, sessionID string) (*model.Session, error) {
	var s model.Session
	if err := r.col.FindOne(ctx, ownerFilter(ownerID, sessionID)).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if s.Turns == nil {
		s.Turns = []model.Turn{}
	}
	return &s, nil
}

func (r *mongoRepository) ListSessions(ctx context.Context, ownerID string) ([]*model.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	sessions := make([]*model.Session, 0)
	for cur.Next(ctx) {
		var s model.Session
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		if s.Turns == nil {
			s.Turns = []model.Turn{}
		}
		sessions = append(sessions, &s)
	}
	return sessions, cur.Err()
}

// AppendTurns is one server-side update pipeline, so the turns, the refreshed
// timestamp and the one-time title change land together.
func (r *mongoRepository) AppendTurns(ctx context.Context, ownerID, sessionID string, turns []model.Turn, derivedTitle string) error {
	set := bson.D{
		{Key: "messages", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$messages", bson.A{}}}},
			// $literal keeps user text such as "$HOME" from being read as a field path.
			bson.D{{Key: "$literal", Value: turns}},
		}}}},
		{Key: "updated_at", Value: r.now()},
	}
	if derivedTitle != "" {
		isSentinel := bson.D{{Key: "$eq", Value: bson.A{"$title_state", string(model.TitleSentinel)}}}
		set = append(set,
			bson.E{Key: "session_name", Value: bson.D{{Key: "$cond", Value: bson.A{
				isSentinel, bson.D{{Key: "$literal", Value: derivedTitle}}, "$session_name",
			}}}},
			bson.E{Key: "title_state", Value: bson.D{{Key: "$cond", Value: bson.A{
				isSentinel, string(model.TitleDerived), "$title_state",
			}}}},
		)
	}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}

	res, err := r.col.UpdateOne(ctx, ownerFilter(ownerID, sessionID), pipeline)
	if err != nil {
		return fmt.Errorf("could not append turns: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) RenameSession(ctx context.Context, ownerID, sessionID, title string) error {
	update := bson.M{"$set": bson.M{
		"session_name": title,
		"title_state":  string(model.TitleUser),
		"updated_at":   r.now(),
	}}
	res, err := r.col.UpdateOne(ctx, ownerFilter(ownerID, sessionID), update)
	if err != nil {
		return fmt.Errorf("could not rename session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) DeleteSession(ctx context.Context, ownerID, sessionID string) error {
	res, err := r.col.DeleteOne(ctx, ownerFilter(ownerID, sessionID))
	if err != nil {
		return fmt.Errorf("could not delete session: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}
