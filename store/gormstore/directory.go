package gormstore

import (
	"context"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
	"gorm.io/gorm"
)

// Directory reads accounts from the shared users table. The marketplace
// owns the rows; messaging never writes them outside of tests and seeding.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) FindByID(ctx context.Context, id string) (*model.User, error) {
	var rec userRecord
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	u := rec.toModel()
	return &u, nil
}

func (d *Directory) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var rec userRecord
	if err := d.db.WithContext(ctx).Where("email = ?", store.NormalizeEmail(email)).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	u := rec.toModel()
	return &u, nil
}

func (d *Directory) FindByIDs(ctx context.Context, ids []string) (map[string]model.User, error) {
	out := make(map[string]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var recs []userRecord
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&recs).Error; err != nil {
		return nil, err
	}
	for i := range recs {
		out[recs[i].ID] = recs[i].toModel()
	}
	return out, nil
}

// Upsert writes a user row. Used for seeding development data.
func (d *Directory) Upsert(ctx context.Context, u model.User) error {
	rec := userRecord{ID: u.ID, Email: store.NormalizeEmail(u.Email), Name: u.Name, Role: string(u.Role)}
	return d.db.WithContext(ctx).Save(&rec).Error
}
