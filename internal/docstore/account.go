package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

type shopDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Slug      string    `bson:"slug"`
	CreatedAt time.Time `bson:"created_at"`
}

type userDoc struct {
	ID           string    `bson:"_id"`
	ShopID       string    `bson:"shop_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	DisplayName  string    `bson:"display_name"`
	Role         string    `bson:"role"`
	TOTPSecret   *string   `bson:"totp_secret"`
	TOTPEnabled  bool      `bson:"totp_enabled"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d userDoc) model() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("user _id %q: %w", d.ID, err)
	}
	shopID, err := uuid.Parse(d.ShopID)
	if err != nil {
		return nil, fmt.Errorf("user %s shop_id: %w", d.ID, err)
	}
	return &models.User{
		ID:           id,
		ShopID:       shopID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		DisplayName:  d.DisplayName,
		Role:         models.Role(d.Role),
		TOTPSecret:   d.TOTPSecret,
		TOTPEnabled:  d.TOTPEnabled,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

// AccountStore holds shops and users. Emails are stored lower-cased so the
// unique index is case-insensitive.
type AccountStore struct {
	shops *mongo.Collection
	users *mongo.Collection
}

// NewAccountStore returns an AccountStore on db.
func NewAccountStore(db *mongo.Database) *AccountStore {
	return &AccountStore{
		shops: db.Collection(shopCollection),
		users: db.Collection(userCollection),
	}
}

// CreateShop inserts a shop.
func (s *AccountStore) CreateShop(ctx context.Context, name, slug string) (*models.Shop, error) {
	doc := shopDoc{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      slug,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.shops.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("create shop: slug %q already exists", slug)
		}
		return nil, fmt.Errorf("create shop: %w", err)
	}
	return &models.Shop{ID: uuid.MustParse(doc.ID), Name: name, Slug: slug, CreatedAt: doc.CreatedAt}, nil
}

// FindShop returns the shop with the given id, or nil.
func (s *AccountStore) FindShop(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var doc shopDoc
	err := s.shops.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find shop: %w", err)
	}
	return &models.Shop{ID: id, Name: doc.Name, Slug: doc.Slug, CreatedAt: doc.CreatedAt}, nil
}

// CountUsers returns the number of accounts across all shops.
func (s *AccountStore) CountUsers(ctx context.Context) (int, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(n), nil
}

// CreateUser inserts a user whose password is already hashed.
func (s *AccountStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := userDoc{
		ID:           uuid.NewString(),
		ShopID:       u.ShopID.String(),
		Email:        strings.ToLower(u.Email),
		PasswordHash: u.PasswordHash,
		DisplayName:  u.DisplayName,
		Role:         string(u.Role),
		TOTPEnabled:  u.TOTPEnabled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("create user: email %q already exists", u.Email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return doc.model()
}

func (s *AccountStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.model()
}

// FindByEmail returns the user with the given email, or nil.
func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.findUser(ctx, bson.M{"email": strings.ToLower(email)})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByID returns the user with the given id, or nil.
func (s *AccountStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.findUser(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// SetTOTPSecret saves the TOTP secret for a user (during 2FA setup).
func (s *AccountStore) SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	return s.setUser(ctx, userID, bson.M{"totp_secret": secret}, "set totp secret")
}

// EnableTOTP marks 2FA as active for a user.
func (s *AccountStore) EnableTOTP(ctx context.Context, userID uuid.UUID) error {
	return s.setUser(ctx, userID, bson.M{"totp_enabled": true}, "enable totp")
}

func (s *AccountStore) setUser(ctx context.Context, userID uuid.UUID, fields bson.M, op string) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID.String()}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: user %s not found", op, userID)
	}
	return nil
}
