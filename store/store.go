package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/VTGare/Taterboard/ledger"
	"github.com/diamondburned/arikawa/v3/discord"
	"go.uber.org/multierr"
)

// Store persists guild ledgers. Configuration and counters are written
// separately so a config change doesn't rewrite every counter.
type Store interface {
	// LoadAll returns every guild that has both a config and counters saved.
	LoadAll(ctx context.Context) (map[discord.GuildID]*ledger.Ledger, error)
	SaveCounters(ctx context.Context, guildID discord.GuildID, l *ledger.Ledger) error
	SaveConfig(ctx context.Context, guildID discord.GuildID, cfg *ledger.Config) error
	Init(ctx context.Context) error
	Close(ctx context.Context) error
}

// Common errors
var (
	ErrInternal    = errors.New("internal error")
	ErrUnavailable = errors.New("storage is unavailable")
	ErrCorrupted   = errors.New("corrupted document")
)

// SaveCommunity writes both documents of a guild. A failure of one doesn't stop the other.
func SaveCommunity(ctx context.Context, s Store, guildID discord.GuildID, l *ledger.Ledger) error {
	var err error
	if cerr := s.SaveConfig(ctx, guildID, &l.Config); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("save config: %w", cerr))
	}

	if terr := s.SaveCounters(ctx, guildID, l); terr != nil {
		err = multierr.Append(err, fmt.Errorf("save counters: %w", terr))
	}

	return err
}
