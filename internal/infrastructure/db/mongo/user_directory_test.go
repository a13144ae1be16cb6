package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/artistsnetwork/identity/internal/core/domain"
)

func TestUserDoc_RoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := &domain.User{
		FirstName:    "Ana",
		LastName:     "Lopez",
		Username:     "ana",
		Email:        "ana@example.com",
		PasswordHash: "$2a$12$hash",
		Phone:        "555",
		Address:      "Main St",
		Role:         domain.RoleAdmin,
		CreatedAt:    created,
	}

	doc := toDoc(u)
	doc.ID = primitive.NewObjectID()

	if doc.Login.Email != "ana@example.com" || doc.Login.Password != "$2a$12$hash" {
		t.Fatalf("credentials not stored under login: %+v", doc.Login)
	}
	if doc.Role != "admin" {
		t.Fatalf("expected role stored as text, got %q", doc.Role)
	}

	got, err := doc.toDomain()
	if err != nil {
		t.Fatalf("toDomain returned error: %v", err)
	}
	if got.ID != doc.ID.Hex() {
		t.Fatalf("expected id %s, got %s", doc.ID.Hex(), got.ID)
	}
	if got.Username != "ana" || got.Role != domain.RoleAdmin || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUserDoc_BSONLayout(t *testing.T) {
	doc := toDoc(&domain.User{Username: "ana", Email: "ana@example.com", PasswordHash: "h", Role: domain.RoleArtist})

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	email, err := bson.Raw(raw).LookupErr("login", "email")
	if err != nil {
		t.Fatalf("expected login.email in document: %v", err)
	}
	if email.StringValue() != "ana@example.com" {
		t.Fatalf("unexpected login.email %q", email.StringValue())
	}
	if _, err := bson.Raw(raw).LookupErr("_id"); err == nil {
		t.Fatalf("expected empty _id to be omitted")
	}
}

func TestUserDoc_RejectsUnknownRole(t *testing.T) {
	doc := userDoc{ID: primitive.NewObjectID(), Role: "superuser"}
	if _, err := doc.toDomain(); err == nil {
		t.Fatalf("expected error for unknown stored role")
	}
}
