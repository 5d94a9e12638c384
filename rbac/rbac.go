// Package rbac decides role privileges with casbin. Policies live in the
// casbin_rule table when an adapter is given, otherwise in memory.
package rbac

import (
	"fmt"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/config"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
)

// DefaultPolicies are ensured on every start.
var DefaultPolicies = [][]string{
	{string(model.RoleAdmin), "conversations", "read_all"},
	{string(model.RoleAdmin), "presence", "read_any"},
}

type Enforcer struct {
	e *casbin.SyncedEnforcer
}

// New builds an enforcer from the embedded model. adapter may be nil.
func New(adapter persist.Adapter) (*Enforcer, error) {
	m, err := casbinmodel.NewModelFromString(config.RBACModel)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}

	var e *casbin.SyncedEnforcer
	if adapter != nil {
		e, err = casbin.NewSyncedEnforcer(m, adapter)
	} else {
		e, err = casbin.NewSyncedEnforcer(m)
	}
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}

	for _, p := range DefaultPolicies {
		if has, _ := e.HasPolicy(p[0], p[1], p[2]); !has {
			if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
				return nil, fmt.Errorf("casbin default policy: %w", err)
			}
		}
	}
	return &Enforcer{e: e}, nil
}

// Allow reports whether role may perform act on obj.
func (en *Enforcer) Allow(role model.Role, obj, act string) (bool, error) {
	if !role.Valid() {
		return false, nil
	}
	return en.e.Enforce(string(role), obj, act)
}

// Reload re-reads policies from the adapter.
func (en *Enforcer) Reload() error {
	return en.e.LoadPolicy()
}
