package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/artistsnetwork/identity/internal/core/domain"
)

const (
	defaultUsersCollection = "users"
	opTimeout              = 5 * time.Second
)

// emailCollation makes email comparisons case-insensitive. Queries must use
// the same collation as the unique index for the index to apply.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

// UserDirectory is a MongoDB-backed ports.UserDirectory.
type UserDirectory struct {
	col *mongo.Collection
}

func NewUserDirectory(db *mongo.Database, collection string) *UserDirectory {
	if collection == "" {
		collection = defaultUsersCollection
	}
	return &UserDirectory{col: db.Collection(collection)}
}

type loginDoc struct {
	Username string `bson:"username"`
	Email    string `bson:"email"`
	Password string `bson:"password"`
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	FirstName string             `bson:"firstname"`
	LastName  string             `bson:"lastname"`
	Phone     string             `bson:"phone"`
	Address   string             `bson:"address"`
	Role      string             `bson:"role"`
	Login     loginDoc           `bson:"login"`
	CreatedAt time.Time          `bson:"created_at"`
}

func toDoc(u *domain.User) userDoc {
	return userDoc{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      u.Role.String(),
		Login: loginDoc{
			Username: u.Username,
			Email:    u.Email,
			Password: u.PasswordHash,
		},
		CreatedAt: u.CreatedAt,
	}
}

func (d userDoc) toDomain() (*domain.User, error) {
	role, err := domain.ParseRole(d.Role)
	if err != nil {
		return nil, fmt.Errorf("user %s: stored role %q: %w", d.ID.Hex(), d.Role, err)
	}
	return &domain.User{
		ID:           d.ID.Hex(),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Username:     d.Login.Username,
		Email:        d.Login.Email,
		PasswordHash: d.Login.Password,
		Phone:        d.Phone,
		Address:      d.Address,
		Role:         role,
		CreatedAt:    d.CreatedAt.UTC(),
	}, nil
}

// InsertUnique relies on the unique indexes created by EnsureIndexes.
func (r *UserDirectory) InsertUnique(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	doc := toDoc(user)
	doc.ID = primitive.NewObjectID()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	created.ID = doc.ID.Hex()
	return &created, nil
}

func (r *UserDirectory) FindByEmail(ctx context.Context, email string, caseInsensitive bool) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOne()
	if caseInsensitive {
		opts.SetCollation(emailCollation)
	}

	var doc userDoc
	if err := r.col.FindOne(ctx, bson.M{"login.email": email}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain()
}

func (r *UserDirectory) ListAll(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// EnsureIndexes creates the unique indexes InsertUnique depends on.
func (r *UserDirectory) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "login.email", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(emailCollation).SetName("login_email_unique"),
		},
		{
			Keys:    bson.D{{Key: "login.username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("login_username_unique"),
		},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// Ping checks the server behind the collection.
func (r *UserDirectory) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}
