package bot

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/VTGare/Taterboard/community"
	"github.com/VTGare/Taterboard/ledger"
	"github.com/VTGare/Taterboard/metrics"
	"github.com/VTGare/Taterboard/pins"
	"github.com/VTGare/Taterboard/scheduler"
	"github.com/VTGare/Taterboard/store"
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/knadh/koanf/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// TextHandler handles a guild message that isn't from a bot.
type TextHandler func(ctx context.Context, e *gateway.MessageCreateEvent) error

type Bot struct {
	State       *state.State
	Store       store.Store
	Communities *community.Store
	Pins        *pins.Synchronizer
	Scheduler   *scheduler.Scheduler
	Metrics     *metrics.Metrics
	Log         *zap.SugaredLogger

	router   *cmdroute.Router
	commands []api.CreateCommandData
	text     TextHandler
	self     atomic.Uint64
	// author resolves the sender of a message the ledger hasn't seen yet.
	author ledger.AuthorLookup
}

func New(log *zap.SugaredLogger, config *koanf.Koanf, persist store.Store, communities *community.Store, m *metrics.Metrics) *Bot {
	var (
		r = cmdroute.NewRouter()
		s = state.New("Bot " + config.String("bot.token"))
	)

	s.AddIntents(gateway.IntentGuilds |
		gateway.IntentGuildEmojis |
		gateway.IntentGuildMessageReactions |
		gateway.IntentGuildMessages |
		gateway.IntentMessageContent,
	)

	b := &Bot{
		State:       s,
		Store:       persist,
		Communities: communities,
		Pins:        pins.New(s),
		Metrics:     m,
		Log:         log,

		router:   r,
		commands: make([]api.CreateCommandData, 0),
	}

	b.author = b.messageAuthor
	b.Scheduler = scheduler.New(scheduler.Options{
		SaveInterval:   config.Duration("schedule.save"),
		StatusInterval: config.Duration("schedule.status"),
		Save:           b.SaveAll,
		Stats:          communities.Stats,
		Presence:       b,
	})

	return b
}

func (b *Bot) AddCommand(f func(b *Bot) (command api.CreateCommandData, handler cmdroute.CommandHandlerFunc)) {
	cmd, handler := f(b)

	b.commands = append(b.commands, cmd)
	b.router.AddFunc(cmd.Name, handler)
}

func (b *Bot) AddMiddleware(mw cmdroute.Middleware) {
	b.router.Use(mw)
}

func (b *Bot) SetTextHandler(h TextHandler) {
	b.text = h
}

// Start connects to the gateway and blocks until ctx is done or the connection fails.
func (b *Bot) Start(ctx context.Context) error {
	b.State.AddInteractionHandler(b.router)
	b.State.AddHandler(b.onReady)
	b.State.AddHandler(b.onReactionAdd)
	b.State.AddHandler(b.onReactionRemove)
	b.State.AddHandler(b.onMessageCreate)

	if err := cmdroute.OverwriteCommands(b.State, b.commands); err != nil {
		return fmt.Errorf("failed to overwrite commands: %w", err)
	}

	go b.Scheduler.Run(ctx)

	if err := b.State.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	return nil
}

// Self is the bot's own user ID, known after the Ready event.
func (b *Bot) Self() discord.UserID {
	return discord.UserID(b.self.Load())
}

// SaveAll saves every guild and records how long it took.
func (b *Bot) SaveAll(ctx context.Context) error {
	timer := prometheus.NewTimer(b.Metrics.SaveDuration)
	defer timer.ObserveDuration()

	b.Metrics.Communities.Set(float64(b.Communities.Len()))
	return b.Communities.SaveAll(ctx, b.Store)
}

// SetActivity replaces the bot's presence with a single activity.
func (b *Bot) SetActivity(ctx context.Context, activity discord.Activity) error {
	return b.State.Gateway().Send(ctx, &gateway.UpdatePresenceCommand{
		Status:     discord.OnlineStatus,
		Activities: []discord.Activity{activity},
	})
}

// IsAdministrator reports whether the user has the Administrator permission in the channel.
func (b *Bot) IsAdministrator(channelID discord.ChannelID, userID discord.UserID) bool {
	perms, err := b.State.Permissions(channelID, userID)
	if err != nil {
		b.Log.With("channel_id", channelID, "user_id", userID, "error", err).
			Warn("failed to get permissions")
		return false
	}

	return perms.Has(discord.PermissionAdministrator)
}
