// Package scheduler periodically saves every guild and rotates the bot's status.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/VTGare/Taterboard/community"
	"github.com/VTGare/Taterboard/ctxzap"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/jonboulle/clockwork"
	"go.uber.org/multierr"
)

const (
	DefaultSaveInterval   = 30 * time.Minute
	DefaultStatusInterval = 60 * time.Minute
	// TickInterval is how often Run checks the timers without any incoming events.
	TickInterval = time.Minute
)

// Presence publishes the bot's status.
type Presence interface {
	SetActivity(ctx context.Context, activity discord.Activity) error
}

type Options struct {
	Clock          clockwork.Clock
	SaveInterval   time.Duration
	StatusInterval time.Duration

	// Save persists every guild.
	Save func(ctx context.Context) error
	// Stats returns aggregates for status messages.
	Stats    func() community.Stats
	Presence Presence
}

type Scheduler struct {
	opts Options

	mu         sync.Mutex
	lastSave   time.Time
	lastStatus time.Time
	statusIdx  int
	statusSet  bool
}

func New(opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.SaveInterval <= 0 {
		opts.SaveInterval = DefaultSaveInterval
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = DefaultStatusInterval
	}

	now := opts.Clock.Now()
	return &Scheduler{
		opts:       opts,
		lastSave:   now,
		lastStatus: now,
	}
}

// Tick saves and updates the status if their intervals have passed.
// It's called on every incoming event.
func (s *Scheduler) Tick(ctx context.Context) error {
	log := ctxzap.Extract(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		now  = s.opts.Clock.Now()
		errs error
	)

	if now.Sub(s.lastSave) >= s.opts.SaveInterval {
		log.Debug("saving all guilds")
		s.lastSave = now

		if err := s.opts.Save(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("save: %w", err))
		}
	}

	// A failed status update is retried on the next tick.
	if !s.statusSet || now.Sub(s.lastStatus) >= s.opts.StatusInterval {
		activity := statuses[s.statusIdx](s.opts.Stats())

		log.With("status", activity.Name).Debug("updating status")
		if err := s.opts.Presence.SetActivity(ctx, activity); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("set activity: %w", err))
		} else {
			s.lastStatus = now
			s.statusSet = true
			s.statusIdx = (s.statusIdx + 1) % len(statuses)
		}
	}

	return errs
}

// Run ticks every minute until the context is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := s.opts.Clock.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.Tick(ctx); err != nil {
				ctxzap.Extract(ctx).With("error", err).Error("periodic update failed")
			}
		}
	}
}

var statuses = []func(community.Stats) discord.Activity{
	func(s community.Stats) discord.Activity {
		return discord.Activity{
			Type: discord.GameActivity,
			Name: fmt.Sprintf("with the %v potatoes given", s.TatersGiven),
		}
	},
	func(s community.Stats) discord.Activity {
		return discord.Activity{
			Type: discord.GameActivity,
			Name: fmt.Sprintf("in %v servers", s.Communities),
		}
	},
	func(s community.Stats) discord.Activity {
		return discord.Activity{
			Type: discord.ListeningActivity,
			Name: fmt.Sprintf("to %v potatoed messages", s.TrackedMessages),
		}
	},
	func(s community.Stats) discord.Activity {
		return discord.Activity{
			Type: discord.CompetingActivity,
			Name: fmt.Sprintf("the record %v potatoes on one message", s.RecordCount),
		}
	},
}
