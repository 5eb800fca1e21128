package commands

import (
	"context"
	"time"

	"github.com/VTGare/Taterboard/arikawautils/embeds"
	"github.com/VTGare/Taterboard/bot"
	"github.com/VTGare/Taterboard/ledger"
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
)

// RegisterCommands adds every slash command and the text command handler.
func RegisterCommands(b *bot.Bot) {
	b.AddCommand(ping)
	b.AddCommand(leaderboardCommand("receivers", "See the most protatolific receivers of potatoes", ledger.Received))
	b.AddCommand(leaderboardCommand("givers", "See the most protatolific givers of potatoes", ledger.Given))
	b.SetTextHandler(textHandler(b))
}

func ping(b *bot.Bot) (api.CreateCommandData, cmdroute.CommandHandlerFunc) {
	cmd := api.CreateCommandData{
		Name:        "ping",
		Description: "Get the bot's response time",
		Type:        discord.ChatInputCommand,
	}

	return cmd, func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		latency := b.State.Gateway().Latency().Round(time.Millisecond).String()

		eb := embeds.NewBuilder()
		eb.Title("🏓 Pong!").AddField("Latency", latency)

		return &api.InteractionResponseData{
			Embeds: &[]discord.Embed{
				eb.Build(),
			},
		}
	}
}

func leaderboardCommand(name, description string, metric ledger.Metric) func(b *bot.Bot) (api.CreateCommandData, cmdroute.CommandHandlerFunc) {
	return func(b *bot.Bot) (api.CreateCommandData, cmdroute.CommandHandlerFunc) {
		cmd := api.CreateCommandData{
			Name:        name,
			Description: description,
			Type:        discord.ChatInputCommand,
			Options: discord.CommandOptions{
				discord.NewIntegerOption("page", "Page of the leaderboard", false),
			},
		}

		return cmd, func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
			if !data.Event.GuildID.IsValid() {
				return &api.InteractionResponseData{
					Content: option.NewNullableString("Leaderboards only exist in servers."),
					Flags:   discord.EphemeralMessage,
				}
			}

			page, err := data.Options.Find("page").IntValue()
			if err != nil {
				page = 1
			}

			var lb ledger.Leaderboard
			_ = b.Communities.Do(ctx, data.Event.GuildID, func(l *ledger.Ledger) error {
				lb = l.Page(metric, int(page), data.Event.SenderID())
				return nil
			})

			return &api.InteractionResponseData{
				Embeds: &[]discord.Embed{LeaderboardEmbed(lb)},
			}
		}
	}
}
