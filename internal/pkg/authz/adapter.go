package authz

import (
	"context"
	"errors"
	"strings"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/samber/lo"
	"go.uber.org/atomic"
)

var (
	// ErrReadOnly is returned by every mutating adapter method.
	ErrReadOnly = errors.New("authz: policy adapter is read-only")
	// ErrInvalidRule is returned when a configured rule cannot be parsed.
	ErrInvalidRule = errors.New("authz: invalid policy rule")
)

// Source yields policy lines such as {"p", "security_admin", "account_security", "read"}.
type Source interface {
	Rules(ctx context.Context) ([][]string, error)
}

// Adapter loads policies from static seed rules plus optional sources.
// Policies are managed outside the service, so writes are rejected.
type Adapter struct {
	seed    [][]string
	sources []Source
	loaded  *atomic.Int64
}

var _ persist.Adapter = (*Adapter)(nil)

// NewAdapter parses the seed lines ("p, role, obj, act" or "g, user, role").
func NewAdapter(seed []string, sources ...Source) (*Adapter, error) {
	rules := make([][]string, 0, len(seed))
	for _, line := range seed {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rule, err := ParseRule(line)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return &Adapter{
		seed:    rules,
		sources: lo.Filter(sources, func(s Source, _ int) bool { return !lo.IsNil(s) }),
		loaded:  atomic.NewInt64(0),
	}, nil
}

// ParseRule splits a comma separated policy line.
func ParseRule(line string) ([]string, error) {
	parts := lo.Map(strings.Split(line, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	if len(parts) < 3 || lo.Contains(parts, "") {
		return nil, errors.Join(ErrInvalidRule, errors.New(line))
	}
	if parts[0] != "p" && parts[0] != "g" {
		return nil, errors.Join(ErrInvalidRule, errors.New(line))
	}
	return parts, nil
}

// LoadPolicy loads the seed rules and every source into the model.
func (a *Adapter) LoadPolicy(m model.Model) error {
	lines := append([][]string{}, a.seed...)
	for _, src := range a.sources {
		rules, err := src.Rules(context.Background())
		if err != nil {
			return err
		}
		lines = append(lines, rules...)
	}

	lines = lo.UniqBy(lines, func(line []string) string {
		return strings.Join(line, ",")
	})
	for _, line := range lines {
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
	}

	a.loaded.Store(int64(len(lines)))
	return nil
}

// Loaded returns the number of distinct rules from the last load.
func (a *Adapter) Loaded() int64 {
	return a.loaded.Load()
}

func (a *Adapter) SavePolicy(model.Model) error { return ErrReadOnly }

func (a *Adapter) AddPolicy(string, string, []string) error { return ErrReadOnly }

func (a *Adapter) RemovePolicy(string, string, []string) error { return ErrReadOnly }

func (a *Adapter) RemoveFilteredPolicy(string, string, int, ...string) error { return ErrReadOnly }
