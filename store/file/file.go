// Package file stores guilds as JSON files in a single directory:
// `<guild>_config.json` and `<guild>_taters.json`.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/VTGare/Taterboard/ctxzap"
	"github.com/VTGare/Taterboard/ledger"
	"github.com/VTGare/Taterboard/store"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/spf13/afero"
)

const (
	configSuffix   = "_config.json"
	countersSuffix = "_taters.json"
	legacySuffix   = ".json"
)

type fileStore struct {
	fs   afero.Fs
	root string
}

// New returns a store rooted at dir. The directory must exist before LoadAll.
func New(fsys afero.Fs, dir string) store.Store {
	return &fileStore{fs: fsys, root: dir}
}

func (s *fileStore) Init(ctx context.Context) error {
	info, err := s.fs.Stat(s.root)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %v is not a directory", store.ErrUnavailable, s.root)
	}

	return nil
}

func (s *fileStore) Close(context.Context) error {
	return nil
}

func (s *fileStore) LoadAll(ctx context.Context) (map[discord.GuildID]*ledger.Ledger, error) {
	log := ctxzap.Extract(ctx)

	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	ids := make(map[discord.GuildID]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if id, ok := guildPrefix(entry.Name()); ok {
			ids[id] = struct{}{}
		}
	}

	ledgers := make(map[discord.GuildID]*ledger.Ledger, len(ids))
	for id := range ids {
		l, err := s.load(id)
		if err != nil {
			log.With("guild_id", id, "error", err).Warn("skipping guild")
			continue
		}

		log.With("guild_id", id).Info("loaded taters and config")
		ledgers[id] = l
	}

	return ledgers, nil
}

func (s *fileStore) load(guildID discord.GuildID) (*ledger.Ledger, error) {
	var (
		guild    store.Guild
		counters store.Counters
	)

	cfgErr := s.read(s.path(guildID, configSuffix), &guild)
	cntErr := s.read(s.path(guildID, countersSuffix), &counters)

	if errors.Is(cfgErr, fs.ErrNotExist) && errors.Is(cntErr, fs.ErrNotExist) {
		return s.loadLegacy(guildID)
	}

	if cfgErr != nil {
		return nil, fmt.Errorf("config: %w", cfgErr)
	}

	if cntErr != nil {
		return nil, fmt.Errorf("counters: %w", cntErr)
	}

	cfg, err := guild.Config()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return counters.Ledger(cfg)
}

func (s *fileStore) loadLegacy(guildID discord.GuildID) (*ledger.Ledger, error) {
	var legacy store.Legacy
	if err := s.read(s.path(guildID, legacySuffix), &legacy); err != nil {
		return nil, fmt.Errorf("legacy: %w", err)
	}

	cfg, err := legacy.Config.Config()
	if err != nil {
		return nil, fmt.Errorf("legacy config: %w", err)
	}

	return legacy.Counters.Ledger(cfg)
}

func (s *fileStore) SaveCounters(ctx context.Context, guildID discord.GuildID, l *ledger.Ledger) error {
	if err := s.write(s.path(guildID, countersSuffix), store.NewCounters(guildID, l)); err != nil {
		return err
	}

	ctxzap.Extract(ctx).With("guild_id", guildID).Debug("saved taters")
	return nil
}

func (s *fileStore) SaveConfig(ctx context.Context, guildID discord.GuildID, cfg *ledger.Config) error {
	if err := s.write(s.path(guildID, configSuffix), store.NewGuild(guildID, cfg)); err != nil {
		return err
	}

	ctxzap.Extract(ctx).With("guild_id", guildID).Debug("saved config")
	return nil
}

func (s *fileStore) path(guildID discord.GuildID, suffix string) string {
	return filepath.Join(s.root, guildID.String()+suffix)
}

func (s *fileStore) read(path string, v interface{}) error {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", store.ErrCorrupted, err)
	}

	return nil
}

// write replaces the file as a whole, through a temporary file in the same directory.
func (s *fileStore) write(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %v: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %v: %w", filepath.Base(tmp), err)
	}

	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %v: %w", filepath.Base(tmp), err)
	}

	return nil
}

// guildPrefix extracts the leading guild ID of a file name.
func guildPrefix(name string) (discord.GuildID, bool) {
	if !strings.HasSuffix(name, legacySuffix) {
		return 0, false
	}

	end := strings.IndexFunc(name, func(r rune) bool { return r < '0' || r > '9' })
	if end <= 0 {
		return 0, false
	}

	id, err := strconv.ParseUint(name[:end], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}

	return discord.GuildID(id), true
}
