// Package authz decides whether an administrator may act on account security
// data. Policies are casbin RBAC rules seeded from configuration and,
// optionally, a Postgres table that can be reloaded at runtime.
package authz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
)

// RBACModel is the casbin model shared by every enforcer in the process.
const RBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// ErrNoSubject is returned when Allowed is called without any subject.
var ErrNoSubject = errors.New("authz: no subject provided")

// Authorizer reports whether any of the subjects may perform act on obj.
type Authorizer interface {
	Allowed(ctx context.Context, obj, act string, subjects ...string) (bool, error)
}

// Casbin is an Authorizer backed by a casbin enforcer.
type Casbin struct {
	enforcer *casbin.Enforcer
	adapter  *Adapter
}

// New builds a casbin enforcer over the given adapter and loads its policy.
func New(adapter *Adapter) (*Casbin, error) {
	m, err := model.NewModelFromString(RBACModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	e.EnableAutoSave(false)

	return &Casbin{enforcer: e, adapter: adapter}, nil
}

// Allowed returns true as soon as one subject is granted the action.
func (c *Casbin) Allowed(ctx context.Context, obj, act string, subjects ...string) (bool, error) {
	if len(subjects) == 0 {
		return false, ErrNoSubject
	}

	for _, sub := range subjects {
		if sub == "" {
			continue
		}
		ok, err := c.enforcer.Enforce(sub, obj, act)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	slog.DebugContext(ctx, "authorization denied", "object", obj, "action", act)
	return false, nil
}

// Reload re-reads every policy source.
func (c *Casbin) Reload() error {
	return c.enforcer.LoadPolicy()
}

// Loaded returns how many rules the last load produced.
func (c *Casbin) Loaded() int64 {
	return c.adapter.Loaded()
}
