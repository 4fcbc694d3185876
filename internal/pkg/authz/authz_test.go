package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	rules [][]string
	err   error
}

func (s staticSource) Rules(context.Context) ([][]string, error) {
	return s.rules, s.err
}

func TestParseRule(t *testing.T) {
	rule, err := ParseRule(" p, security_admin ,account_security, read")
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "security_admin", "account_security", "read"}, rule)

	for _, line := range []string{"p, admin", "x, a, b, c", "p, , obj, act"} {
		_, err := ParseRule(line)
		assert.ErrorIs(t, err, ErrInvalidRule, line)
	}
}

func TestCasbin_Allowed(t *testing.T) {
	adapter, err := NewAdapter([]string{
		"p, security_admin, account_security, *",
		"p, helpdesk, account_security, read",
		"g, 42, security_admin",
		"",
	}, staticSource{rules: [][]string{{"p", "helpdesk", "account_security", "read"}}})
	require.NoError(t, err)

	c, err := New(adapter)
	require.NoError(t, err)
	assert.EqualValues(t, 3, c.Loaded())

	ctx := context.Background()

	ok, err := c.Allowed(ctx, "account_security", "unlock", "42")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Allowed(ctx, "account_security", "unlock", "7", "helpdesk")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Allowed(ctx, "account_security", "read", "7", "helpdesk")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.Allowed(ctx, "account_security", "read")
	assert.ErrorIs(t, err, ErrNoSubject)
}

func TestAdapter_SourceError(t *testing.T) {
	boom := errors.New("boom")
	adapter, err := NewAdapter(nil, staticSource{err: boom})
	require.NoError(t, err)

	_, err = New(adapter)
	assert.ErrorContains(t, err, boom.Error())
}

func TestAdapter_ReadOnly(t *testing.T) {
	adapter, err := NewAdapter(nil)
	require.NoError(t, err)

	assert.ErrorIs(t, adapter.AddPolicy("p", "p", []string{"a", "b", "c"}), ErrReadOnly)
	assert.ErrorIs(t, adapter.RemovePolicy("p", "p", []string{"a", "b", "c"}), ErrReadOnly)
	assert.ErrorIs(t, adapter.RemoveFilteredPolicy("p", "p", 0, "a"), ErrReadOnly)
	assert.ErrorIs(t, adapter.SavePolicy(nil), ErrReadOnly)
}
