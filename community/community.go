// Package community owns every guild ledger of the process.
//
// Each guild has its own lock, held for the whole handling of an event
// including calls to Discord, so events of one guild are processed in order
// while different guilds don't wait on each other.
package community

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/VTGare/Taterboard/ctxzap"
	"github.com/VTGare/Taterboard/ledger"
	"github.com/VTGare/Taterboard/store"
	"github.com/diamondburned/arikawa/v3/discord"
	"go.uber.org/multierr"
)

type community struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
}

type Store struct {
	mu          sync.Mutex
	communities map[discord.GuildID]*community
	defaults    func() ledger.Config
}

// New creates a store from previously loaded ledgers. New guilds get the
// configuration returned by defaults.
func New(loaded map[discord.GuildID]*ledger.Ledger, defaults func() ledger.Config) *Store {
	s := &Store{
		communities: make(map[discord.GuildID]*community, len(loaded)),
		defaults:    defaults,
	}

	for id, l := range loaded {
		s.communities[id] = &community{ledger: l}
	}

	return s
}

func (s *Store) get(guildID discord.GuildID) *community {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.communities[guildID]
	if !ok {
		c = &community{ledger: ledger.New(s.defaults())}
		s.communities[guildID] = c
	}

	return c
}

// Do runs fn with the guild's ledger locked, creating the ledger on first use.
func (s *Store) Do(ctx context.Context, guildID discord.GuildID, fn func(l *ledger.Ledger) error) error {
	c := s.get(guildID)

	c.mu.Lock()
	defer c.mu.Unlock()

	return fn(c.ledger)
}

func (s *Store) snapshot() ([]discord.GuildID, []*community) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]discord.GuildID, 0, len(s.communities))
	for id := range s.communities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	cs := make([]*community, 0, len(ids))
	for _, id := range ids {
		cs = append(cs, s.communities[id])
	}

	return ids, cs
}

// Range calls fn for every guild, one at a time, each under its own lock.
func (s *Store) Range(fn func(guildID discord.GuildID, l *ledger.Ledger)) {
	ids, cs := s.snapshot()

	for i, c := range cs {
		c.mu.Lock()
		fn(ids[i], c.ledger)
		c.mu.Unlock()
	}
}

// Len is the number of guilds served.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.communities)
}

// SaveAll saves every guild. Failures are collected, they don't stop the remaining guilds.
func (s *Store) SaveAll(ctx context.Context, persist store.Store) error {
	log := ctxzap.Extract(ctx)

	var errs error
	s.Range(func(guildID discord.GuildID, l *ledger.Ledger) {
		if err := store.SaveCommunity(ctx, persist, guildID, l); err != nil {
			log.With("guild_id", guildID, "error", err).Error("failed to save a guild")
			errs = multierr.Append(errs, fmt.Errorf("guild %v: %w", guildID, err))
		}
	})

	return errs
}

// Stats are aggregates across all guilds.
type Stats struct {
	TatersGiven     uint64
	Communities     int
	TrackedMessages int
	RecordCount     uint64
}

func (s *Store) Stats() Stats {
	var stats Stats

	s.Range(func(_ discord.GuildID, l *ledger.Ledger) {
		stats.Communities++
		stats.TrackedMessages += len(l.Messages)

		for _, count := range l.Given {
			stats.TatersGiven += count
		}

		for _, tm := range l.Messages {
			stats.RecordCount = max(stats.RecordCount, tm.Count)
		}
	})

	return stats
}
