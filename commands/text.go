package commands

import (
	"context"
	"errors"

	"github.com/VTGare/Taterboard/arikawautils/embeds"
	"github.com/VTGare/Taterboard/bot"
	"github.com/VTGare/Taterboard/ctxzap"
	"github.com/VTGare/Taterboard/ledger"
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
)

// Saver persists a guild. store.Store implements it.
type Saver interface {
	SaveCounters(ctx context.Context, guildID discord.GuildID, l *ledger.Ledger) error
	SaveConfig(ctx context.Context, guildID discord.GuildID, cfg *ledger.Config) error
}

// Sender posts replies. *state.State implements it.
type Sender interface {
	SendMessageComplex(channelID discord.ChannelID, data api.SendMessageData) (*discord.Message, error)
}

// textRunner executes text commands against a locked ledger.
type textRunner struct {
	saver  Saver
	sender Sender
	// isAdministrator reports whether the user has the Administrator permission.
	isAdministrator func(channelID discord.ChannelID, userID discord.UserID) bool
}

func textHandler(b *bot.Bot) bot.TextHandler {
	r := &textRunner{
		saver:           b.Store,
		sender:          b.State,
		isAdministrator: b.IsAdministrator,
	}

	return func(ctx context.Context, e *gateway.MessageCreateEvent) error {
		return b.Communities.Do(ctx, e.GuildID, func(l *ledger.Ledger) error {
			return r.run(ctx, l, e)
		})
	}
}

// run handles `<trigger> <command>` messages. A successful admin command
// saves the guild's configuration afterwards.
func (r *textRunner) run(ctx context.Context, l *ledger.Ledger, e *gateway.MessageCreateEvent) error {
	cmd, ok, err := Parse(e.Content, l.Config.TriggerWord)
	if !ok || errors.Is(err, ErrUnknownCommand) {
		return nil
	}

	ctx = ctxzap.With(ctx,
		"sender", e.Author.ID,
		"command", cmd.Kind,
		"args", cmd.Args,
	)
	log := ctxzap.Extract(ctx)

	env := &Env{
		Ledger:  l,
		Sender:  e.Author.ID,
		IsAdmin: l.Config.IsAdmin(e.Author.ID) || r.isAdministrator(e.ChannelID, e.Author.ID),
		SaveCounters: func(ctx context.Context) error {
			return r.saver.SaveCounters(ctx, e.GuildID, l)
		},
	}

	reply, err := Execute(ctx, cmd, env)
	switch {
	case errors.Is(err, ErrNotAdmin):
		log.Debug("ignoring admin command from a regular user")
		return nil
	case err != nil:
		log.With("error", err).Info("command failed")

		embed := embeds.NewBuilder().ErrorTemplate(err.Error()).Build()
		reply = Reply{Embed: &embed}
	default:
		log.Info("executed a command")
	}

	if !reply.Empty() {
		if _, err := r.sender.SendMessageComplex(e.ChannelID, reply.MessageData()); err != nil {
			log.With("error", err).Error("failed to send a reply")
		}
	}

	if err == nil && cmd.Kind.Admin() {
		if err := r.saver.SaveConfig(ctx, e.GuildID, &l.Config); err != nil {
			return err
		}
	}

	return nil
}
