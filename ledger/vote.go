package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/VTGare/Taterboard/ctxzap"
	"github.com/diamondburned/arikawa/v3/discord"
)

// ErrRejected is wrapped by every error that means "this reaction doesn't count".
// Rejections never change the ledger.
var ErrRejected = errors.New("vote rejected")

var (
	ErrWrongEmoji  = fmt.Errorf("%w: not a tater", ErrRejected)
	ErrBlacklisted = fmt.Errorf("%w: channel is blacklisted", ErrRejected)
	ErrSelfVote    = fmt.Errorf("%w: self vote", ErrRejected)
	ErrBotMessage  = fmt.Errorf("%w: message sent by the bot", ErrRejected)
	ErrUntracked   = fmt.Errorf("%w: message is not tracked", ErrRejected)
)

// Vote is a single reaction event.
type Vote struct {
	GuildID   discord.GuildID
	ChannelID discord.ChannelID
	MessageID discord.MessageID
	VoterID   discord.UserID
	Emoji     discord.Emoji
}

// Update is the result of a counted vote, handed over to the pin synchronizer.
type Update struct {
	GuildID   discord.GuildID
	ChannelID discord.ChannelID
	MessageID discord.MessageID
	// Message is a snapshot taken right after the counters were changed.
	Message TateredMessage
}

// AuthorLookup resolves the author of a message the ledger hasn't seen yet.
type AuthorLookup func(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID) (discord.UserID, error)

func (l *Ledger) check(v Vote) error {
	if !l.Config.TaterEmoji.Matches(v.Emoji) {
		return ErrWrongEmoji
	}

	if l.Config.IsBlacklisted(v.ChannelID) {
		return ErrBlacklisted
	}

	return nil
}

// ApplyVote counts a tater. The author of a new message is resolved with lookup;
// messages sent by self (the bot) are never tracked.
func (l *Ledger) ApplyVote(ctx context.Context, v Vote, self discord.UserID, lookup AuthorLookup) (Update, error) {
	if err := l.check(v); err != nil {
		return Update{}, err
	}

	tm, tracked := l.Messages[v.MessageID]
	if !tracked {
		author, err := lookup(ctx, v.ChannelID, v.MessageID)
		if err != nil {
			ctxzap.Extract(ctx).With(
				"channel_id", v.ChannelID,
				"message_id", v.MessageID,
				"error", err,
			).Error("failed to resolve message author")

			return Update{}, fmt.Errorf("resolve author: %w", err)
		}

		if author == self {
			return Update{}, ErrBotMessage
		}

		tm = &TateredMessage{Sender: author}
	}

	if tm.Sender == v.VoterID {
		return Update{}, ErrSelfVote
	}

	if !tracked {
		l.Messages[v.MessageID] = tm
	}

	tm.Count++
	l.Given[v.VoterID]++
	l.Received[tm.Sender]++

	return l.update(v, tm), nil
}

// RetractVote undoes a tater. Counters never go below zero.
func (l *Ledger) RetractVote(ctx context.Context, v Vote) (Update, error) {
	if err := l.check(v); err != nil {
		return Update{}, err
	}

	log := ctxzap.Extract(ctx).With(
		"channel_id", v.ChannelID,
		"message_id", v.MessageID,
		"user_id", v.VoterID,
	)

	tm, ok := l.Messages[v.MessageID]
	if !ok {
		log.Warn("tater removed from a message that was never tracked, probably older than the bot")
		return Update{}, ErrUntracked
	}

	if tm.Sender == v.VoterID {
		return Update{}, ErrSelfVote
	}

	if !decrement(&tm.Count) {
		log.Warn("message count is already zero")
	}

	if given := l.Given[v.VoterID]; given > 0 {
		l.Given[v.VoterID] = given - 1
	} else {
		log.Warn("given count is already zero")
	}

	if received := l.Received[tm.Sender]; received > 0 {
		l.Received[tm.Sender] = received - 1
	} else {
		log.With("sender", tm.Sender).Warn("received count is already zero")
	}

	return l.update(v, tm), nil
}

func (l *Ledger) update(v Vote, tm *TateredMessage) Update {
	return Update{
		GuildID:   v.GuildID,
		ChannelID: v.ChannelID,
		MessageID: v.MessageID,
		Message:   *tm,
	}
}

func decrement(n *uint64) bool {
	if *n == 0 {
		return false
	}

	*n--
	return true
}
