package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/natours/natours-api/internal/apperr"
)

const collection = "users"

type userDocument struct {
	ID                   string     `bson:"_id"`
	Name                 string     `bson:"name"`
	Email                string     `bson:"email"`
	Photo                string     `bson:"photo"`
	Role                 string     `bson:"role"`
	PasswordHash         string     `bson:"password"`
	PasswordChangedAt    *time.Time `bson:"passwordChangedAt,omitempty"`
	PasswordResetToken   *string    `bson:"passwordResetToken,omitempty"`
	PasswordResetExpires *time.Time `bson:"passwordResetExpires,omitempty"`
	Active               bool       `bson:"active"`
	CreatedAt            time.Time  `bson:"createdAt"`
	UpdatedAt            time.Time  `bson:"updatedAt"`
}

func toDocument(u User) userDocument {
	return userDocument{
		ID:                   u.ID.String(),
		Name:                 u.Name,
		Email:                u.Email,
		Photo:                u.Photo,
		Role:                 string(u.Role),
		PasswordHash:         u.PasswordHash,
		PasswordChangedAt:    u.PasswordChangedAt,
		PasswordResetToken:   u.PasswordResetToken,
		PasswordResetExpires: u.PasswordResetExpires,
		Active:               u.Active,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func (d userDocument) user() (User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return User{}, fmt.Errorf("user document %q: %w", d.ID, err)
	}
	return User{
		ID:                   id,
		Name:                 d.Name,
		Email:                d.Email,
		Photo:                d.Photo,
		Role:                 Role(d.Role),
		PasswordHash:         d.PasswordHash,
		PasswordChangedAt:    d.PasswordChangedAt,
		PasswordResetToken:   d.PasswordResetToken,
		PasswordResetExpires: d.PasswordResetExpires,
		Active:               d.Active,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}, nil
}

var activeOnly = bson.M{"$ne": false}

// MongoStore keeps users in a mongo collection. Ids are stored as uuid strings.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(collection)}
}

// EnsureIndexes creates the unique email index and the reset token lookup index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "passwordResetToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, u *User) error {
	_, err := s.coll.InsertOne(ctx, toDocument(*u))
	return apperr.FromDB(err)
}

func (s *MongoStore) Save(ctx context.Context, u *User) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": u.ID.String()},
		toDocument(*u),
		options.Replace().SetUpsert(true),
	)
	return apperr.FromDB(err)
}

func (s *MongoStore) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	return s.findOne(ctx, bson.M{"_id": id.String(), "active": activeOnly})
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.findOne(ctx, bson.M{"email": email, "active": activeOnly})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (User, error) {
	var doc userDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return User{}, apperr.FromDB(err)
	}
	return doc.user()
}

func (s *MongoStore) ClaimResetToken(ctx context.Context, hash string, now time.Time) (User, error) {
	filter := bson.M{
		"passwordResetToken":   hash,
		"passwordResetExpires": bson.M{"$gt": now.UTC()},
		"active":               activeOnly,
	}
	update := bson.M{
		"$unset": bson.M{"passwordResetToken": "", "passwordResetExpires": ""},
		"$set":   bson.M{"updatedAt": now.UTC()},
	}

	var doc userDocument
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return User{}, apperr.FromDB(err)
	}
	return doc.user()
}

func (s *MongoStore) List(ctx context.Context, opts ListOptions) ([]User, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "email", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.coll.Find(ctx, bson.M{"active": activeOnly}, findOpts)
	if err != nil {
		return nil, apperr.FromDB(err)
	}

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := make([]User, 0, len(docs))
	for _, d := range docs {
		u, err := d.user()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return apperr.FromDB(err)
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, apperr.FromDB(err)
	}
	return res.DeletedCount, nil
}
