package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/VTGare/Taterboard/ledger"
	"github.com/diamondburned/arikawa/v3/discord"
)

// ID is a snowflake as stored on disk. It's always written as a string,
// older files that stored plain numbers are read as well.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}

	*id = ID(s)
	return nil
}

func (id ID) snowflake() (discord.Snowflake, error) {
	if id == "" || id == "0" {
		return 0, nil
	}

	sf, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad snowflake %q", ErrCorrupted, string(id))
	}

	return discord.Snowflake(sf), nil
}

func newID(sf discord.Snowflake) ID {
	if !sf.IsValid() {
		return ""
	}

	return ID(strconv.FormatUint(uint64(sf), 10))
}

// Guild is the configuration document of a guild.
type Guild struct {
	ID                  ID       `json:"-" bson:"guild_id"`
	TriggerWord         string   `json:"trigger_word" bson:"trigger_word"`
	Threshold           uint64   `json:"threshold" bson:"threshold"`
	Medals              []string `json:"medals" bson:"medals"`
	TaterEmoji          Emoji    `json:"tater_emoji" bson:"tater_emoji"`
	BlacklistedChannels []ID     `json:"blacklisted_channels" bson:"blacklisted_channels"`
	PinChannel          ID       `json:"pin_channel" bson:"pin_channel"`
	Admins              []ID     `json:"admins" bson:"admins"`
}

type Emoji struct {
	ID       ID     `json:"id,omitempty" bson:"id,omitempty"`
	Name     string `json:"name" bson:"name"`
	Animated bool   `json:"animated" bson:"animated"`
}

// NewGuild converts a configuration into its document.
func NewGuild(guildID discord.GuildID, cfg *ledger.Config) *Guild {
	channels := make([]discord.Snowflake, 0, len(cfg.BlacklistedChannels))
	for id := range cfg.BlacklistedChannels {
		channels = append(channels, discord.Snowflake(id))
	}

	admins := make([]discord.Snowflake, 0, len(cfg.Admins))
	for id := range cfg.Admins {
		admins = append(admins, discord.Snowflake(id))
	}

	return &Guild{
		ID:          newID(discord.Snowflake(guildID)),
		TriggerWord: cfg.TriggerWord,
		Threshold:   cfg.Threshold,
		Medals:      append([]string{}, cfg.Medals...),
		TaterEmoji: Emoji{
			ID:       newID(discord.Snowflake(cfg.TaterEmoji.ID)),
			Name:     cfg.TaterEmoji.Name,
			Animated: cfg.TaterEmoji.Animated,
		},
		BlacklistedChannels: sortedIDs(channels),
		PinChannel:          newID(discord.Snowflake(cfg.PinChannel)),
		Admins:              sortedIDs(admins),
	}
}

// Config converts the document back. Any malformed ID makes the whole document invalid.
func (g *Guild) Config() (ledger.Config, error) {
	cfg := ledger.Config{
		TriggerWord:         g.TriggerWord,
		Threshold:           g.Threshold,
		Medals:              append([]string{}, g.Medals...),
		BlacklistedChannels: make(map[discord.ChannelID]struct{}, len(g.BlacklistedChannels)),
		Admins:              make(map[discord.UserID]struct{}, len(g.Admins)),
	}

	if cfg.TriggerWord == "" {
		return ledger.Config{}, fmt.Errorf("%w: empty trigger word", ErrCorrupted)
	}

	if cfg.Threshold == 0 {
		return ledger.Config{}, fmt.Errorf("%w: zero threshold", ErrCorrupted)
	}

	emoji, err := g.TaterEmoji.ID.snowflake()
	if err != nil {
		return ledger.Config{}, err
	}
	cfg.TaterEmoji = ledger.Emoji{
		ID:       discord.EmojiID(emoji),
		Name:     g.TaterEmoji.Name,
		Animated: g.TaterEmoji.Animated,
	}

	pin, err := g.PinChannel.snowflake()
	if err != nil {
		return ledger.Config{}, err
	}
	cfg.PinChannel = discord.ChannelID(pin)

	for _, id := range g.BlacklistedChannels {
		sf, err := id.snowflake()
		if err != nil {
			return ledger.Config{}, err
		}
		cfg.BlacklistedChannels[discord.ChannelID(sf)] = struct{}{}
	}

	for _, id := range g.Admins {
		sf, err := id.snowflake()
		if err != nil {
			return ledger.Config{}, err
		}
		cfg.Admins[discord.UserID(sf)] = struct{}{}
	}

	return cfg, nil
}

func sortedIDs(ids []discord.Snowflake) []ID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	res := make([]ID, 0, len(ids))
	for _, id := range ids {
		res = append(res, newID(id))
	}

	return res
}
