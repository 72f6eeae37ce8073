package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type categoryDoc struct {
	ID          string    `bson:"_id"`
	ShopID      string    `bson:"shop_id"`
	Name        string    `bson:"name"`
	Slug        string    `bson:"slug"`
	Description string    `bson:"description"`
	Children    []string  `bson:"children"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d categoryDoc) model() (models.Category, error) {
	c := models.Category{
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		Children:    make([]uuid.UUID, 0, len(d.Children)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	var err error
	if c.ID, err = uuid.Parse(d.ID); err != nil {
		return c, fmt.Errorf("category _id %q: %w", d.ID, err)
	}
	if c.ShopID, err = uuid.Parse(d.ShopID); err != nil {
		return c, fmt.Errorf("category %s shop_id: %w", d.ID, err)
	}
	for _, s := range d.Children {
		id, err := uuid.Parse(s)
		if err != nil {
			return c, fmt.Errorf("category %s child %q: %w", d.ID, s, err)
		}
		c.Children = append(c.Children, id)
	}
	return c, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// CategoryStore keeps categories as documents with an embedded children
// array.
type CategoryStore struct {
	collection *mongo.Collection
}

// NewCategoryStore returns a CategoryStore on db.
func NewCategoryStore(db *mongo.Database) *CategoryStore {
	return &CategoryStore{collection: db.Collection(categoryCollection)}
}

// Snapshot returns every category of a shop in creation order.
func (s *CategoryStore) Snapshot(ctx context.Context, shopID uuid.UUID) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"shop_id": shopID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []categoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	out := make([]models.Category, 0, len(docs))
	for _, d := range docs {
		c, err := d.model()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Create inserts a new category document.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	doc := categoryDoc{
		ID:          id.String(),
		ShopID:      c.ShopID.String(),
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Children:    idStrings(c.Children),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("create category: slug %q already exists", c.Slug)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	created, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// FindByID returns a category of a shop, or nil.
func (s *CategoryStore) FindByID(ctx context.Context, shopID, id uuid.UUID) (*models.Category, error) {
	var doc categoryDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": id.String(), "shop_id": shopID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	c, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Rename updates a category's name and slug.
func (s *CategoryStore) Rename(ctx context.Context, shopID, id uuid.UUID, name, slug string) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id.String(), "shop_id": shopID.String()},
		bson.M{"$set": bson.M{"name": name, "slug": slug, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("rename category: slug %q already exists", slug)
		}
		return fmt.Errorf("rename category: %w", err)
	}
	return nil
}

// SaveChildren rewrites the children arrays of the listed parents in one
// ordered bulk write, then pulls each listed leaf out of any other parent
// so a leaf never ends up under two roots.
func (s *CategoryStore) SaveChildren(ctx context.Context, shopID uuid.UUID, children map[uuid.UUID][]uuid.UUID) error {
	if len(children) == 0 {
		return nil
	}
	shop := shopID.String()
	now := time.Now().UTC()

	var writes []mongo.WriteModel
	for parentID, kids := range children {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": parentID.String(), "shop_id": shop}).
			SetUpdate(bson.M{"$set": bson.M{"children": idStrings(kids), "updated_at": now}}))
	}
	for parentID, kids := range children {
		for _, childID := range kids {
			writes = append(writes, mongo.NewUpdateManyModel().
				SetFilter(bson.M{
					"shop_id":  shop,
					"children": childID.String(),
					"_id":      bson.M{"$ne": parentID.String()},
				}).
				SetUpdate(bson.M{
					"$pull": bson.M{"children": childID.String()},
					"$set":  bson.M{"updated_at": now},
				}))
		}
	}

	if _, err := s.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("save children: %w", err)
	}
	return nil
}

// Delete removes a category and any reference to it in a children array.
func (s *CategoryStore) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	shop := shopID.String()
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id.String(), "shop_id": shop}); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	_, err := s.collection.UpdateMany(ctx,
		bson.M{"shop_id": shop, "children": id.String()},
		bson.M{"$pull": bson.M{"children": id.String()}},
	)
	if err != nil {
		return fmt.Errorf("delete category references: %w", err)
	}
	return nil
}
