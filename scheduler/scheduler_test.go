package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/VTGare/Taterboard/community"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresence struct {
	activities []discord.Activity
	err        error
}

func (f *fakePresence) SetActivity(_ context.Context, a discord.Activity) error {
	f.activities = append(f.activities, a)
	return f.err
}

type harness struct {
	clock    clockwork.FakeClock
	presence *fakePresence
	saves    int
	saveErr  error
	sched    *Scheduler
}

func newHarness() *harness {
	h := &harness{
		clock:    clockwork.NewFakeClock(),
		presence: &fakePresence{},
	}

	h.sched = New(Options{
		Clock: h.clock,
		Save: func(context.Context) error {
			h.saves++
			return h.saveErr
		},
		Stats: func() community.Stats {
			return community.Stats{TatersGiven: 120, Communities: 3, TrackedMessages: 40, RecordCount: 17}
		},
		Presence: h.presence,
	})

	return h
}

func TestTickSaves(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.sched.Tick(ctx))
	assert.Zero(t, h.saves)

	h.clock.Advance(29 * time.Minute)
	require.NoError(t, h.sched.Tick(ctx))
	assert.Zero(t, h.saves)

	h.clock.Advance(time.Minute)
	require.NoError(t, h.sched.Tick(ctx))
	assert.Equal(t, 1, h.saves)

	require.NoError(t, h.sched.Tick(ctx))
	assert.Equal(t, 1, h.saves)

	h.clock.Advance(30 * time.Minute)
	require.NoError(t, h.sched.Tick(ctx))
	assert.Equal(t, 2, h.saves)
}

func TestTickRotatesStatus(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.sched.Tick(ctx))
	require.Len(t, h.presence.activities, 1)
	assert.Equal(t, discord.Activity{Type: discord.GameActivity, Name: "with the 120 potatoes given"}, h.presence.activities[0])

	h.clock.Advance(59 * time.Minute)
	require.NoError(t, h.sched.Tick(ctx))
	assert.Len(t, h.presence.activities, 1)

	want := []discord.Activity{
		{Type: discord.GameActivity, Name: "in 3 servers"},
		{Type: discord.ListeningActivity, Name: "to 40 potatoed messages"},
		{Type: discord.CompetingActivity, Name: "the record 17 potatoes on one message"},
		{Type: discord.GameActivity, Name: "with the 120 potatoes given"},
	}

	for i, activity := range want {
		h.clock.Advance(time.Hour)
		require.NoError(t, h.sched.Tick(ctx))
		require.Len(t, h.presence.activities, i+2)
		assert.Equal(t, activity, h.presence.activities[i+1])
	}
}

func TestTickReportsErrors(t *testing.T) {
	h := newHarness()
	h.saveErr = errors.New("disk full")
	h.presence.err = errors.New("gateway closed")

	h.clock.Advance(DefaultSaveInterval)
	err := h.sched.Tick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, h.saveErr)
	assert.ErrorIs(t, err, h.presence.err)

	// the save timer is reset even when saving failed
	h.saveErr = nil
	h.presence.err = nil
	require.NoError(t, h.sched.Tick(context.Background()))
	assert.Equal(t, 1, h.saves)
}

func TestTickRetriesFailedStatus(t *testing.T) {
	h := newHarness()
	h.presence.err = errors.New("gateway closed")
	ctx := context.Background()

	require.Error(t, h.sched.Tick(ctx))
	require.Error(t, h.sched.Tick(ctx))

	h.presence.err = nil
	require.NoError(t, h.sched.Tick(ctx))

	require.Len(t, h.presence.activities, 3)
	for _, activity := range h.presence.activities {
		assert.Equal(t, "with the 120 potatoes given", activity.Name)
	}

	// committed now, so the next tick within the interval leaves the status alone
	require.NoError(t, h.sched.Tick(ctx))
	assert.Len(t, h.presence.activities, 3)

	h.clock.Advance(DefaultStatusInterval)
	require.NoError(t, h.sched.Tick(ctx))
	require.Len(t, h.presence.activities, 4)
	assert.Equal(t, "in 3 servers", h.presence.activities[3].Name)
}

func TestRun(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.sched.Run(ctx)
		close(done)
	}()

	h.clock.BlockUntil(1)
	h.clock.Advance(TickInterval)

	assert.Eventually(t, func() bool {
		h.sched.mu.Lock()
		defer h.sched.mu.Unlock()
		return h.sched.statusSet
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
