package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/VTGare/Taterboard/community"
	"github.com/VTGare/Taterboard/ledger"
	"github.com/VTGare/Taterboard/metrics"
	"github.com/VTGare/Taterboard/pins"
	"github.com/VTGare/Taterboard/scheduler"
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	botID      discord.UserID    = 1
	guildID    discord.GuildID   = 2
	channelID  discord.ChannelID = 3
	pinChannel discord.ChannelID = 4
	messageID  discord.MessageID = 5
	authorID   discord.UserID    = 6
	voterID    discord.UserID    = 7
)

var tater = discord.Emoji{ID: ledger.DefaultEmoji.ID, Name: ledger.DefaultEmoji.Name}

type fakeMessenger struct {
	// onSend runs while the announcement is being sent.
	onSend func()

	sent    []api.SendMessageData
	deleted []discord.MessageID
}

func (f *fakeMessenger) Message(channelID discord.ChannelID, messageID discord.MessageID) (*discord.Message, error) {
	return &discord.Message{
		ID:        messageID,
		ChannelID: channelID,
		Content:   "first tater",
		Author:    discord.User{ID: authorID, Username: "spud"},
	}, nil
}

func (f *fakeMessenger) Member(discord.GuildID, discord.UserID) (*discord.Member, error) {
	return nil, errors.New("unknown member")
}

func (f *fakeMessenger) SendMessageComplex(_ discord.ChannelID, data api.SendMessageData) (*discord.Message, error) {
	if f.onSend != nil {
		f.onSend()
	}

	f.sent = append(f.sent, data)
	return &discord.Message{ID: 100}, nil
}

func (f *fakeMessenger) EditMessageComplex(discord.ChannelID, discord.MessageID, api.EditMessageData) (*discord.Message, error) {
	return &discord.Message{}, nil
}

func (f *fakeMessenger) DeleteMessage(_ discord.ChannelID, messageID discord.MessageID, _ api.AuditLogReason) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

type nopPresence struct{}

func (nopPresence) SetActivity(context.Context, discord.Activity) error { return nil }

func newTestBot(fm *fakeMessenger) *Bot {
	communities := community.New(nil, func() ledger.Config {
		cfg := ledger.DefaultConfig()
		cfg.Threshold = 1
		cfg.Medals = []string{"🥔"}
		cfg.PinChannel = pinChannel
		return cfg
	})

	b := &Bot{
		Communities: communities,
		Pins:        pins.New(fm),
		Metrics:     metrics.New(prometheus.NewRegistry()),
		Log:         zap.NewNop().Sugar(),
		author: func(context.Context, discord.ChannelID, discord.MessageID) (discord.UserID, error) {
			return authorID, nil
		},
	}

	b.Scheduler = scheduler.New(scheduler.Options{
		Clock:    clockwork.NewFakeClock(),
		Save:     func(context.Context) error { return nil },
		Stats:    communities.Stats,
		Presence: nopPresence{},
	})
	b.self.Store(uint64(botID))

	return b
}

func reactionAdd(voter discord.UserID) *gateway.MessageReactionAddEvent {
	return &gateway.MessageReactionAddEvent{
		UserID:    voter,
		ChannelID: channelID,
		MessageID: messageID,
		GuildID:   guildID,
		Emoji:     tater,
	}
}

func messageState(t *testing.T, b *Bot) ledger.TateredMessage {
	t.Helper()

	var tm ledger.TateredMessage
	require.NoError(t, b.Communities.Do(context.Background(), guildID, func(l *ledger.Ledger) error {
		require.Contains(t, l.Messages, messageID)
		tm = *l.Messages[messageID]
		return nil
	}))

	return tm
}

func TestReactionLifecycle(t *testing.T) {
	fm := &fakeMessenger{}
	b := newTestBot(fm)

	b.onReactionAdd(reactionAdd(voterID))

	require.Len(t, fm.sent, 1)
	assert.Equal(t, "🥔 1", fm.sent[0].Content)
	assert.Equal(t, ledger.TateredMessage{Sender: authorID, Count: 1, PinID: 100}, messageState(t, b))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Metrics.VotesProcessed.WithLabelValues("add", "counted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Metrics.PinUpdates.WithLabelValues("created")))

	b.onReactionRemove(&gateway.MessageReactionRemoveEvent{
		UserID:    voterID,
		ChannelID: channelID,
		MessageID: messageID,
		GuildID:   guildID,
		Emoji:     tater,
	})

	assert.Equal(t, []discord.MessageID{100}, fm.deleted)
	assert.Equal(t, ledger.TateredMessage{Sender: authorID}, messageState(t, b))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Metrics.VotesProcessed.WithLabelValues("remove", "counted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Metrics.PinUpdates.WithLabelValues("deleted")))
}

func TestReactionPinsUnderGuildLock(t *testing.T) {
	fm := &fakeMessenger{}
	b := newTestBot(fm)

	var (
		acquired = make(chan struct{})
		blocked  bool
	)

	fm.onSend = func() {
		go func() {
			_ = b.Communities.Do(context.Background(), guildID, func(*ledger.Ledger) error { return nil })
			close(acquired)
		}()

		select {
		case <-acquired:
		case <-time.After(50 * time.Millisecond):
			blocked = true
		}
	}

	b.onReactionAdd(reactionAdd(voterID))

	assert.True(t, blocked, "guild lock must be held while the pin is sent")
	<-acquired
}

func TestReactionRejected(t *testing.T) {
	fm := &fakeMessenger{}
	b := newTestBot(fm)

	b.onReactionAdd(reactionAdd(authorID))

	assert.Empty(t, fm.sent)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Metrics.VotesProcessed.WithLabelValues("add", "rejected")))
}

func TestReactionLookupFailure(t *testing.T) {
	fm := &fakeMessenger{}
	b := newTestBot(fm)
	b.author = func(context.Context, discord.ChannelID, discord.MessageID) (discord.UserID, error) {
		return 0, errors.New("missing access")
	}

	b.onReactionAdd(reactionAdd(voterID))

	assert.Empty(t, fm.sent)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Metrics.VotesProcessed.WithLabelValues("add", "failed")))
}

func TestReactionOutsideGuild(t *testing.T) {
	fm := &fakeMessenger{}
	b := newTestBot(fm)

	e := reactionAdd(voterID)
	e.GuildID = 0
	b.onReactionAdd(e)

	assert.Zero(t, b.Communities.Len())
	assert.Empty(t, fm.sent)
}
