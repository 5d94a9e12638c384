package database

import (
	"fmt"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/rbac"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Casbin builds the role enforcer. Policies are stored in Postgres when a
// database is given and kept in memory otherwise.
func Casbin(db *gorm.DB) (*rbac.Enforcer, error) {
	if db == nil {
		log.Warn().Msg("casbin policies kept in memory")
		return rbac.New(nil)
	}

	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("casbin adapter: %w", err)
	}
	return rbac.New(adapter)
}
