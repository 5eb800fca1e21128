// Package pins keeps announcements in the pin channel in sync with tater counts.
package pins

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/VTGare/Taterboard/ctxzap"
	"github.com/VTGare/Taterboard/ledger"
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/utils/httputil"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
)

// ErrNoPinChannel is returned when a message earns a pin but the guild has no pin channel.
var ErrNoPinChannel = errors.New("pin channel is not set")

// Messenger is the part of the Discord API the synchronizer needs.
// *state.State implements it.
type Messenger interface {
	Message(channelID discord.ChannelID, messageID discord.MessageID) (*discord.Message, error)
	Member(guildID discord.GuildID, userID discord.UserID) (*discord.Member, error)
	SendMessageComplex(channelID discord.ChannelID, data api.SendMessageData) (*discord.Message, error)
	EditMessageComplex(channelID discord.ChannelID, messageID discord.MessageID, data api.EditMessageData) (*discord.Message, error)
	DeleteMessage(channelID discord.ChannelID, messageID discord.MessageID, reason api.AuditLogReason) error
}

// Action is what happened to an announcement.
type Action int

const (
	ActionNone Action = iota
	ActionCreated
	ActionEdited
	ActionDeleted
)

func (a Action) String() string {
	return [...]string{"none", "created", "edited", "deleted"}[a]
}

type Synchronizer struct {
	messenger Messenger
}

func New(m Messenger) *Synchronizer {
	return &Synchronizer{messenger: m}
}

// Sync moves the announcement of an updated message to the state its count calls for.
// The pin ID in the ledger is only changed after the API call succeeded.
func (s *Synchronizer) Sync(ctx context.Context, l *ledger.Ledger, u ledger.Update) (Action, error) {
	var (
		cfg  = &l.Config
		tm   = u.Message
		tier = cfg.Tier(tm.Count)
		log  = ctxzap.Extract(ctx).With(
			"guild_id", u.GuildID,
			"message_id", u.MessageID,
			"count", tm.Count,
			"tier", tier,
		)
	)

	switch {
	case tier < 0 && !tm.Pinned():
		return ActionNone, nil

	case tier < 0:
		log.With("pin_id", tm.PinID).Debug("deleting pin")

		err := s.messenger.DeleteMessage(cfg.PinChannel, tm.PinID, "")
		if err != nil && !isNotFound(err) {
			return ActionNone, fmt.Errorf("delete pin: %w", err)
		}

		l.SetPin(u.MessageID, 0)
		return ActionDeleted, nil

	case tm.Pinned():
		log.With("pin_id", tm.PinID).Debug("editing pin")

		_, err := s.messenger.EditMessageComplex(cfg.PinChannel, tm.PinID, api.EditMessageData{
			Content: option.NewNullableString(header(cfg, tm.Count)),
		})
		if err == nil {
			return ActionEdited, nil
		}

		if !isNotFound(err) {
			return ActionNone, fmt.Errorf("edit pin: %w", err)
		}

		log.Info("pin was deleted by someone else, creating a new one")
		l.SetPin(u.MessageID, 0)
	}

	if !cfg.PinChannel.IsValid() {
		return ActionNone, ErrNoPinChannel
	}

	log.Debug("creating pin")

	pin, err := s.create(l, u)
	if err != nil {
		return ActionNone, err
	}

	l.SetPin(u.MessageID, pin)
	return ActionCreated, nil
}

func (s *Synchronizer) create(l *ledger.Ledger, u ledger.Update) (discord.MessageID, error) {
	original, err := s.messenger.Message(u.ChannelID, u.MessageID)
	if err != nil {
		return 0, fmt.Errorf("get original message: %w", err)
	}

	if !original.GuildID.IsValid() {
		original.GuildID = u.GuildID
	}

	name := original.Author.Username
	if member, err := s.messenger.Member(u.GuildID, original.Author.ID); err == nil && member.Nick != "" {
		name = member.Nick
	}

	embed := announcement(original, name, l.MessagesBy(u.Message.Sender, u.MessageID))

	pin, err := s.messenger.SendMessageComplex(l.Config.PinChannel, api.SendMessageData{
		Content: header(&l.Config, u.Message.Count),
		Embeds:  []discord.Embed{embed},
	})
	if err != nil {
		return 0, fmt.Errorf("send pin: %w", err)
	}

	return pin.ID, nil
}

// header is the medal and count shown above an announcement.
func header(cfg *ledger.Config, count uint64) string {
	return fmt.Sprintf("%v %v", cfg.Medal(cfg.Tier(count)), count)
}

func isNotFound(err error) bool {
	var herr *httputil.HTTPError
	return errors.As(err, &herr) && herr.Status == http.StatusNotFound
}
