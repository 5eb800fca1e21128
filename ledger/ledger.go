// Package ledger holds per-guild tater state: configuration, reaction counters
// and the cached state of every message that has received a tater.
package ledger

import (
	"github.com/diamondburned/arikawa/v3/discord"
)

// Ledger is the state of a single guild.
type Ledger struct {
	Config Config

	// Messages caches every message with at least one tater on it.
	Messages map[discord.MessageID]*TateredMessage
	// Received is how many taters each user has got on their messages.
	Received map[discord.UserID]uint64
	// Given is how many taters each user has handed out.
	Given map[discord.UserID]uint64
}

// TateredMessage is a tracked message.
type TateredMessage struct {
	Sender discord.UserID
	Count  uint64
	// PinID is the announcement in the pin channel. Zero when not pinned.
	PinID discord.MessageID
}

// Pinned reports whether the message has a live announcement.
func (tm TateredMessage) Pinned() bool {
	return tm.PinID.IsValid()
}

// Config is per-guild configuration.
type Config struct {
	TriggerWord string
	// Threshold is the number of taters required for the first medal.
	Threshold uint64
	// Medals are shown on pins. Medal i is awarded at Threshold * 2^i taters.
	Medals              []string
	TaterEmoji          Emoji
	BlacklistedChannels map[discord.ChannelID]struct{}
	PinChannel          discord.ChannelID
	Admins              map[discord.UserID]struct{}
}

const (
	DefaultTriggerWord = "taterboard"
	DefaultThreshold   = 5
)

// DefaultMedals is the medal sequence of a new guild.
var DefaultMedals = []string{
	"🥔",
	"🍠",
	"<:tinypotato:735938441505931286>",
	"<:angerypotato:559818417654333461>",
	"<:concernedpotato:711936190080876584>",
	"<a:pattato:754104288078331955>",
}

// DefaultEmoji is the tater of a new guild.
var DefaultEmoji = Emoji{ID: 735938441505931286, Name: "tinypotato"}

// DefaultConfig returns the configuration assigned to a guild on first sight.
// Every seed user becomes an admin.
func DefaultConfig(seed ...discord.UserID) Config {
	cfg := Config{
		TriggerWord:         DefaultTriggerWord,
		Threshold:           DefaultThreshold,
		Medals:              append([]string(nil), DefaultMedals...),
		TaterEmoji:          DefaultEmoji,
		BlacklistedChannels: make(map[discord.ChannelID]struct{}),
		Admins:              make(map[discord.UserID]struct{}),
	}

	for _, id := range seed {
		if id.IsValid() {
			cfg.Admins[id] = struct{}{}
		}
	}

	return cfg
}

// New creates an empty ledger with the given configuration.
func New(cfg Config) *Ledger {
	l := &Ledger{
		Config:   cfg,
		Messages: make(map[discord.MessageID]*TateredMessage),
		Received: make(map[discord.UserID]uint64),
		Given:    make(map[discord.UserID]uint64),
	}
	l.normalize()

	return l
}

// normalize makes sure every map is allocated and the threshold is usable.
func (l *Ledger) normalize() {
	if l.Messages == nil {
		l.Messages = make(map[discord.MessageID]*TateredMessage)
	}
	if l.Received == nil {
		l.Received = make(map[discord.UserID]uint64)
	}
	if l.Given == nil {
		l.Given = make(map[discord.UserID]uint64)
	}
	if l.Config.BlacklistedChannels == nil {
		l.Config.BlacklistedChannels = make(map[discord.ChannelID]struct{})
	}
	if l.Config.Admins == nil {
		l.Config.Admins = make(map[discord.UserID]struct{})
	}
	if l.Config.Threshold == 0 {
		l.Config.Threshold = 1
	}
}

// IsBlacklisted reports whether taters in the channel are ignored.
func (c *Config) IsBlacklisted(channelID discord.ChannelID) bool {
	_, ok := c.BlacklistedChannels[channelID]
	return ok
}

// IsAdmin reports whether the user was explicitly made an admin.
func (c *Config) IsAdmin(userID discord.UserID) bool {
	_, ok := c.Admins[userID]
	return ok
}

// SetPin records the announcement of a tracked message. A zero pinID clears it.
func (l *Ledger) SetPin(messageID, pinID discord.MessageID) {
	if tm, ok := l.Messages[messageID]; ok {
		tm.PinID = pinID
	}
}

// MessagesBy counts the sender's tracked messages, except the given one.
func (l *Ledger) MessagesBy(sender discord.UserID, except discord.MessageID) int {
	var n int
	for id, tm := range l.Messages {
		if id != except && tm.Sender == sender {
			n++
		}
	}

	return n
}
