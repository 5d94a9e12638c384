package mongostore

import (
	"context"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Directory reads accounts from the users collection.
type Directory struct {
	users *mongo.Collection
}

func NewDirectory(db *mongo.Database) *Directory {
	return &Directory{users: db.Collection(usersCollection)}
}

func (d *Directory) FindByID(ctx context.Context, id string) (*model.User, error) {
	return d.findOne(ctx, bson.M{"_id": id})
}

func (d *Directory) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return d.findOne(ctx, bson.M{"email": store.NormalizeEmail(email)})
}

func (d *Directory) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	if err := d.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	u := doc.toModel()
	return &u, nil
}

func (d *Directory) FindByIDs(ctx context.Context, ids []string) (map[string]model.User, error) {
	out := make(map[string]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := d.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for i := range docs {
		out[docs[i].ID] = docs[i].toModel()
	}
	return out, nil
}

// Upsert writes a user document. Used for seeding development data.
func (d *Directory) Upsert(ctx context.Context, u model.User) error {
	doc := userDoc{ID: u.ID, Email: store.NormalizeEmail(u.Email), Name: u.Name, Role: string(u.Role)}
	_, err := d.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, doc, options.Replace().SetUpsert(true))
	return err
}
