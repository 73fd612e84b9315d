package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	titles map[string]bool
	err    error
}

func (f fakeLookup) ExistsByTitle(_ context.Context, title string) (bool, error) {
	return f.titles[title], f.err
}

type memLocker struct {
	held     map[string]string
	released []string
}

func (m *memLocker) Acquire(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	if _, ok := m.held[key]; ok {
		return "", false, nil
	}
	m.held[key] = "tok-" + key
	return m.held[key], true, nil
}

func (m *memLocker) Release(_ context.Context, key, token string) error {
	if m.held[key] == token {
		delete(m.held, key)
		m.released = append(m.released, key)
	}
	return nil
}

func TestShouldProcess(t *testing.T) {
	g := New(fakeLookup{titles: map[string]bool{"paper_a": true}}, nil, 0, zerolog.Nop())

	ok, err := g.ShouldProcess(context.Background(), "paper_a")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.ShouldProcess(context.Background(), "paper_b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestShouldProcessPropagatesLookupError(t *testing.T) {
	g := New(fakeLookup{err: errors.New("db down")}, nil, 0, zerolog.Nop())

	_, err := g.ShouldProcess(context.Background(), "paper_a")
	assert.ErrorContains(t, err, "db down")
}

func TestClaimWithoutLockerAlwaysSucceeds(t *testing.T) {
	g := New(fakeLookup{}, nil, 0, zerolog.Nop())

	release, ok, err := g.Claim(context.Background(), "paper_a")
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}

func TestClaimIsExclusiveUntilReleased(t *testing.T) {
	locker := &memLocker{held: map[string]string{}}
	g := New(fakeLookup{}, locker, time.Minute, zerolog.Nop())

	release, ok, err := g.Claim(context.Background(), "paper_a")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = g.Claim(context.Background(), "paper_a")
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.Equal(t, []string{"paperdeck:lock:paper_a"}, locker.released)

	_, ok, err = g.Claim(context.Background(), "paper_a")
	require.NoError(t, err)
	assert.True(t, ok)
}
