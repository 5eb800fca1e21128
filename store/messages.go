package store

import (
	"github.com/VTGare/Taterboard/ledger"
	"github.com/diamondburned/arikawa/v3/discord"
)

// Counters is the counters document of a guild.
type Counters struct {
	GuildID         ID                 `json:"-" bson:"guild_id"`
	TateredMessages map[string]Message `json:"tatered_messages" bson:"tatered_messages"`
	TatersGot       map[string]uint64  `json:"taters_got" bson:"taters_got"`
	TatersGiven     map[string]uint64  `json:"taters_given" bson:"taters_given"`
}

type Message struct {
	Sender ID     `json:"sender" bson:"sender"`
	Count  uint64 `json:"count" bson:"count"`
	PinID  *ID    `json:"pin_id" bson:"pin_id"`
}

// NewCounters converts the counters of a ledger into a document.
func NewCounters(guildID discord.GuildID, l *ledger.Ledger) *Counters {
	c := &Counters{
		GuildID:         newID(discord.Snowflake(guildID)),
		TateredMessages: make(map[string]Message, len(l.Messages)),
		TatersGot:       make(map[string]uint64, len(l.Received)),
		TatersGiven:     make(map[string]uint64, len(l.Given)),
	}

	for id, tm := range l.Messages {
		msg := Message{Sender: newID(discord.Snowflake(tm.Sender)), Count: tm.Count}
		if tm.Pinned() {
			pin := newID(discord.Snowflake(tm.PinID))
			msg.PinID = &pin
		}

		c.TateredMessages[string(newID(discord.Snowflake(id)))] = msg
	}

	for id, count := range l.Received {
		c.TatersGot[string(newID(discord.Snowflake(id)))] = count
	}

	for id, count := range l.Given {
		c.TatersGiven[string(newID(discord.Snowflake(id)))] = count
	}

	return c
}

// Ledger combines the counters with a configuration.
func (c *Counters) Ledger(cfg ledger.Config) (*ledger.Ledger, error) {
	l := ledger.New(cfg)

	for key, msg := range c.TateredMessages {
		id, err := ID(key).snowflake()
		if err != nil {
			return nil, err
		}

		sender, err := msg.Sender.snowflake()
		if err != nil {
			return nil, err
		}

		tm := &ledger.TateredMessage{Sender: discord.UserID(sender), Count: msg.Count}
		if msg.PinID != nil {
			pin, err := msg.PinID.snowflake()
			if err != nil {
				return nil, err
			}
			tm.PinID = discord.MessageID(pin)
		}

		l.Messages[discord.MessageID(id)] = tm
	}

	if err := readCounters(c.TatersGot, l.Received); err != nil {
		return nil, err
	}

	if err := readCounters(c.TatersGiven, l.Given); err != nil {
		return nil, err
	}

	return l, nil
}

func readCounters(src map[string]uint64, dst map[discord.UserID]uint64) error {
	for key, count := range src {
		id, err := ID(key).snowflake()
		if err != nil {
			return err
		}

		dst[discord.UserID(id)] = count
	}

	return nil
}

// Legacy is the single-file format that predates split config and counters.
type Legacy struct {
	Config Guild `json:"config"`
	Counters
}
