package session

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "smart-response/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(t *testing.T, maxEntries int) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s, err := NewStore(zap.NewNop(), 30*time.Minute, maxEntries, WithClock(clock.Now))
	require.NoError(t, err)
	return s, clock
}

func TestAdvanceThroughSteps(t *testing.T) {
	s, _ := newTestStore(t, 10)
	key := Key{ChannelID: "c1", UserID: "u1"}
	require.NoError(t, s.Put(key, []string{"a", "b", "c"}, "how?"))

	step, err := s.Advance(key)
	require.NoError(t, err)
	assert.Equal(t, Step{Text: "b", Number: 2, Total: 3, HasMore: true}, step)

	step, err = s.Advance(key)
	require.NoError(t, err)
	assert.Equal(t, "c", step.Text)
	assert.False(t, step.HasMore)
	assert.Equal(t, 0, s.Len())

	_, err = s.Advance(key)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAdvanceExpired(t *testing.T) {
	s, clock := newTestStore(t, 10)
	key := Key{ChannelID: "c1", UserID: "u1"}
	require.NoError(t, s.Put(key, []string{"a", "b"}, "q"))

	clock.Advance(30*time.Minute + time.Second)
	_, err := s.Advance(key)
	assert.True(t, apperrors.IsSessionExpired(err))
	assert.Equal(t, 0, s.Len())

	_, err = s.Advance(key)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAdvanceRefreshesIdleTimer(t *testing.T) {
	s, clock := newTestStore(t, 10)
	key := Key{ChannelID: "c1", UserID: "u1"}
	require.NoError(t, s.Put(key, []string{"a", "b", "c"}, "q"))

	clock.Advance(20 * time.Minute)
	_, err := s.Advance(key)
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	step, err := s.Advance(key)
	require.NoError(t, err)
	assert.Equal(t, "c", step.Text)
}

func TestPutOverwrites(t *testing.T) {
	s, _ := newTestStore(t, 10)
	key := Key{ChannelID: "c1", UserID: "u1"}
	require.NoError(t, s.Put(key, []string{"a", "b", "c"}, "first"))
	_, err := s.Advance(key)
	require.NoError(t, err)

	require.NoError(t, s.Put(key, []string{"x", "y"}, "second"))
	sess, ok := s.Peek(key)
	require.True(t, ok)
	assert.Equal(t, 0, sess.Index)
	assert.Equal(t, "second", sess.Query)

	step, err := s.Advance(key)
	require.NoError(t, err)
	assert.Equal(t, "y", step.Text)
}

func TestPutRejectsSingleStep(t *testing.T) {
	s, _ := newTestStore(t, 10)
	err := s.Put(Key{ChannelID: "c", UserID: "u"}, []string{"only"}, "q")
	assert.True(t, apperrors.IsInvalidInput(err))
	assert.Equal(t, 0, s.Len())
}

func TestKeysDoNotCollide(t *testing.T) {
	s, _ := newTestStore(t, 10)
	a := Key{ChannelID: "12", UserID: "3"}
	b := Key{ChannelID: "1", UserID: "23"}
	assert.NotEqual(t, a.String(), b.String())

	require.NoError(t, s.Put(a, []string{"a1", "a2"}, "qa"))
	_, ok := s.Peek(b)
	assert.False(t, ok)
}

func TestSweep(t *testing.T) {
	s, clock := newTestStore(t, 10)
	stale := Key{ChannelID: "c", UserID: "stale"}
	fresh := Key{ChannelID: "c", UserID: "fresh"}
	require.NoError(t, s.Put(stale, []string{"a", "b"}, "q"))

	clock.Advance(25 * time.Minute)
	require.NoError(t, s.Put(fresh, []string{"a", "b"}, "q"))

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, s.Sweep())

	_, ok := s.Peek(stale)
	assert.False(t, ok)
	_, ok = s.Peek(fresh)
	assert.True(t, ok)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	s, _ := newTestStore(t, 10)
	s.Delete(Key{ChannelID: "nope", UserID: "nope"})
	assert.Equal(t, 0, s.Len())
}

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	s, _ := newTestStore(t, 2)
	k1 := Key{ChannelID: "c", UserID: "1"}
	k2 := Key{ChannelID: "c", UserID: "2"}
	k3 := Key{ChannelID: "c", UserID: "3"}
	require.NoError(t, s.Put(k1, []string{"a", "b", "c"}, "q"))
	require.NoError(t, s.Put(k2, []string{"a", "b"}, "q"))

	_, err := s.Advance(k1)
	require.NoError(t, err)

	require.NoError(t, s.Put(k3, []string{"a", "b"}, "q"))
	assert.Equal(t, 2, s.Len())
	_, ok := s.Peek(k2)
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	s, _ := newTestStore(t, 100)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key{ChannelID: "c", UserID: string(rune('a' + i))}
			_ = s.Put(key, []string{"1", "2", "3"}, "q")
			_, _ = s.Advance(key)
			s.Sweep()
			s.Delete(key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, s.Len())
}

func TestSweeper(t *testing.T) {
	s, clock := newTestStore(t, 10)
	require.NoError(t, s.Put(Key{ChannelID: "c", UserID: "u"}, []string{"a", "b"}, "q"))
	clock.Advance(time.Hour)

	sw := NewSweeper(s, "", zap.NewNop())
	var got int
	sw.OnSweep = func(n int) { got = n }
	assert.Equal(t, 1, sw.RunOnce())
	assert.Equal(t, 1, got)

	require.NoError(t, sw.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sw.Stop(ctx)
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	s, _ := newTestStore(t, 10)
	sw := NewSweeper(s, "not a schedule", nil)
	assert.Error(t, sw.Start())
}

func TestNewStoreRejectsZeroCapacity(t *testing.T) {
	_, err := NewStore(nil, time.Minute, 0)
	assert.True(t, apperrors.IsConfiguration(err))
}
