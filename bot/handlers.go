package bot

import (
	"context"
	"errors"

	"github.com/VTGare/Taterboard/ctxzap"
	"github.com/VTGare/Taterboard/ledger"
	"github.com/VTGare/Taterboard/pins"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
)

func (b *Bot) context(args ...interface{}) context.Context {
	return ctxzap.ToContext(context.Background(), b.Log.With(args...))
}

// tick runs periodic work. It must not be called with a guild locked.
func (b *Bot) tick(ctx context.Context) {
	if err := b.Scheduler.Tick(ctx); err != nil {
		ctxzap.Extract(ctx).With("error", err).Error("periodic update failed")
	}
}

func (b *Bot) onReady(e *gateway.ReadyEvent) {
	b.self.Store(uint64(e.User.ID))

	b.Log.With("user", e.User.Tag(), "guilds", len(e.Guilds)).Info("connected")
}

func (b *Bot) onReactionAdd(e *gateway.MessageReactionAddEvent) {
	ctx := b.context("guild_id", e.GuildID, "channel_id", e.ChannelID, "message_id", e.MessageID, "user_id", e.UserID)
	b.tick(ctx)

	if !e.GuildID.IsValid() {
		return
	}

	vote := ledger.Vote{
		GuildID:   e.GuildID,
		ChannelID: e.ChannelID,
		MessageID: e.MessageID,
		VoterID:   e.UserID,
		Emoji:     e.Emoji,
	}

	err := b.Communities.Do(ctx, e.GuildID, func(l *ledger.Ledger) error {
		upd, err := l.ApplyVote(ctx, vote, b.Self(), b.author)
		if err != nil {
			return err
		}

		b.syncPin(ctx, l, upd)
		return nil
	})

	b.report(ctx, "add", err)
}

func (b *Bot) onReactionRemove(e *gateway.MessageReactionRemoveEvent) {
	ctx := b.context("guild_id", e.GuildID, "channel_id", e.ChannelID, "message_id", e.MessageID, "user_id", e.UserID)
	b.tick(ctx)

	if !e.GuildID.IsValid() {
		return
	}

	vote := ledger.Vote{
		GuildID:   e.GuildID,
		ChannelID: e.ChannelID,
		MessageID: e.MessageID,
		VoterID:   e.UserID,
		Emoji:     e.Emoji,
	}

	err := b.Communities.Do(ctx, e.GuildID, func(l *ledger.Ledger) error {
		upd, err := l.RetractVote(ctx, vote)
		if err != nil {
			return err
		}

		b.syncPin(ctx, l, upd)
		return nil
	})

	b.report(ctx, "remove", err)
}

func (b *Bot) onMessageCreate(e *gateway.MessageCreateEvent) {
	if e.Author.Bot {
		return
	}

	ctx := b.context("guild_id", e.GuildID, "channel_id", e.ChannelID, "message_id", e.ID)
	b.tick(ctx)

	if !e.GuildID.IsValid() || b.text == nil {
		return
	}

	if err := b.text(ctx, e); err != nil {
		ctxzap.Extract(ctx).With("error", err).Error("failed to handle a message")
	}
}

func (b *Bot) messageAuthor(_ context.Context, channelID discord.ChannelID, messageID discord.MessageID) (discord.UserID, error) {
	msg, err := b.State.Message(channelID, messageID)
	if err != nil {
		return 0, err
	}

	return msg.Author.ID, nil
}

// syncPin updates the announcement. Counters are already committed at this
// point and stay as they are when Discord fails.
func (b *Bot) syncPin(ctx context.Context, l *ledger.Ledger, upd ledger.Update) {
	action, err := b.Pins.Sync(ctx, l, upd)
	if err != nil {
		ctxzap.Extract(ctx).With("count", upd.Message.Count, "error", err).Error("failed to update pin")
		return
	}

	if action != pins.ActionNone {
		b.Metrics.PinUpdates.WithLabelValues(action.String()).Inc()
	}
}

func (b *Bot) report(ctx context.Context, kind string, err error) {
	log := ctxzap.Extract(ctx)

	switch {
	case err == nil:
		log.Debug("tater counted")
		b.Metrics.VotesProcessed.WithLabelValues(kind, "counted").Inc()
	case errors.Is(err, ledger.ErrRejected):
		log.With("reason", err).Debug("tater ignored")
		b.Metrics.VotesProcessed.WithLabelValues(kind, "rejected").Inc()
	default:
		log.With("error", err).Error("failed to process a tater")
		b.Metrics.VotesProcessed.WithLabelValues(kind, "failed").Inc()
	}
}
