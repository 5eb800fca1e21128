package middlewares

import (
	"context"
	"time"

	"github.com/VTGare/Taterboard/ctxzap"
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/discord"
	"go.uber.org/zap"
)

// CommandLog attaches a command-scoped logger to the context and logs how long
// each slash command took.
func CommandLog(logger *zap.SugaredLogger) cmdroute.Middleware {
	return func(next cmdroute.InteractionHandler) cmdroute.InteractionHandler {
		mw := func(ctx context.Context, ie *discord.InteractionEvent) *api.InteractionResponse {
			cmd, ok := ie.Data.(*discord.CommandInteraction)
			if !ok {
				return next.HandleInteraction(ctx, ie)
			}

			log := logger.With(
				"sender", ie.SenderID(),
				"guild_id", ie.GuildID,
				"channel_id", ie.ChannelID,
				"command", cmd.Name,
			)

			start := time.Now()
			resp := next.HandleInteraction(ctxzap.ToContext(ctx, log), ie)

			log.With(
				"options", cmd.Options,
				"took", time.Since(start),
			).Info("executed a command")

			return resp
		}

		return cmdroute.InteractionHandlerFunc(mw)
	}
}
