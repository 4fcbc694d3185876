// Package memory keeps account security state in process. It honours the
// same conditional save contract as the Postgres and Redis stores and backs
// single-node development and usecase tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/shandysiswandi/campusguard/internal/pkg/clock"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

type Store struct {
	mu      sync.RWMutex
	records map[int64]*entity.AccountSecurity
}

func NewStore() *Store {
	return &Store{records: make(map[int64]*entity.AccountSecurity)}
}

func (s *Store) GetSecurity(_ context.Context, accountID int64) (*entity.AccountSecurity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[accountID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return rec.Clone(), nil
}

// SaveSecurity stores rec when the stored version still equals rec.Version.
// Version zero inserts and conflicts if a record already exists.
func (s *Store) SaveSecurity(_ context.Context, rec *entity.AccountSecurity) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[rec.AccountID]
	switch {
	case rec.Version == 0 && ok:
		return goerror.ErrConflict
	case rec.Version != 0 && (!ok || current.Version != rec.Version):
		return goerror.ErrConflict
	}

	rec.Version++
	s.records[rec.AccountID] = rec.Clone()
	return nil
}

type Accounts struct {
	mu      sync.RWMutex
	byID    map[int64]entity.Account
	byEmail map[string]int64
}

func NewAccounts(accounts ...entity.Account) *Accounts {
	a := &Accounts{
		byID:    make(map[int64]entity.Account),
		byEmail: make(map[string]int64),
	}
	for _, acc := range accounts {
		a.Put(acc)
	}
	return a
}

// Put adds or replaces an account.
func (a *Accounts) Put(acc entity.Account) {
	a.mu.Lock()
	defer a.mu.Unlock()

	acc.Email = strings.ToLower(acc.Email)
	a.byID[acc.ID] = acc
	a.byEmail[acc.Email] = acc.ID
}

func (a *Accounts) GetAccountByID(_ context.Context, id int64) (*entity.Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acc, ok := a.byID[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &acc, nil
}

func (a *Accounts) GetAccountByEmail(ctx context.Context, email string) (*entity.Account, error) {
	a.mu.RLock()
	id, ok := a.byEmail[strings.ToLower(email)]
	a.mu.RUnlock()
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return a.GetAccountByID(ctx, id)
}

// Challenges holds login challenges until they expire on the given clock.
type Challenges struct {
	mu    sync.Mutex
	clock clock.Clocker
	items map[string]entity.LoginChallenge
}

func NewChallenges(c clock.Clocker) *Challenges {
	return &Challenges{clock: c, items: make(map[string]entity.LoginChallenge)}
}

func (c *Challenges) CreateLoginChallenge(_ context.Context, tokenHash string, ch entity.LoginChallenge) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[tokenHash]; ok {
		return goerror.ErrConflict
	}
	c.items[tokenHash] = ch
	return nil
}

func (c *Challenges) GetLoginChallenge(_ context.Context, tokenHash string) (*entity.LoginChallenge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.items[tokenHash]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	if !c.clock.Now().Before(ch.ExpiresAt) {
		delete(c.items, tokenHash)
		return nil, goerror.ErrNotFound
	}
	return &ch, nil
}

func (c *Challenges) DeleteLoginChallenge(_ context.Context, tokenHash string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[tokenHash]
	delete(c.items, tokenHash)
	return ok, nil
}
