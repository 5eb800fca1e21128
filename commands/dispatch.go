package commands

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/VTGare/Taterboard/arikawautils/embeds"
	"github.com/VTGare/Taterboard/ledger"
	"github.com/VTGare/Taterboard/slices"
	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/utils/sendpart"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrNotAdmin       = errors.New("command requires admin rights")
	ErrNotEnoughArgs  = errors.New("not enough arguments (1 expected)")
)

// Kind is a text command.
type Kind int

const (
	Help Kind = iota
	Receivers
	Givers
	CSV
	SetPinChannel
	SetThreshold
	Blacklist
	Unblacklist
	ShowBlacklist
	SetPotato
	Admin
	Unadmin
	ListAdmins
	Save

	kindCount
)

func (k Kind) String() string {
	return definitions[k].name
}

// Admin reports whether only admins may run the command.
func (k Kind) Admin() bool {
	return definitions[k].admin
}

// Command is a parsed text command.
type Command struct {
	Kind Kind
	Args []string
}

// Env is what a command runs against. The ledger is locked by the caller.
type Env struct {
	Ledger  *ledger.Ledger
	Sender  discord.UserID
	IsAdmin bool
	// SaveCounters flushes this guild's counters.
	SaveCounters func(ctx context.Context) error
}

// Reply is sent back to the channel the command came from.
type Reply struct {
	Content string
	Embed   *discord.Embed
	File    *sendpart.File
}

func (r Reply) Empty() bool {
	return r.Content == "" && r.Embed == nil && r.File == nil
}

func (r Reply) MessageData() api.SendMessageData {
	data := api.SendMessageData{Content: r.Content}
	if r.Embed != nil {
		data.Embeds = []discord.Embed{*r.Embed}
	}
	if r.File != nil {
		data.Files = []sendpart.File{*r.File}
	}

	return data
}

type definition struct {
	name  string
	admin bool
	run   func(ctx context.Context, env *Env, args []string) (Reply, error)
}

var definitions = [kindCount]definition{
	Help:          {name: "help", run: help},
	Receivers:     {name: "receivers", run: leaderboard(ledger.Received)},
	Givers:        {name: "givers", run: leaderboard(ledger.Given)},
	CSV:           {name: "csv", admin: true, run: exportCSV},
	SetPinChannel: {name: "set_pin_channel", admin: true, run: setPinChannel},
	SetThreshold:  {name: "set_threshold", admin: true, run: setThreshold},
	Blacklist:     {name: "blacklist", admin: true, run: blacklist},
	Unblacklist:   {name: "unblacklist", admin: true, run: unblacklist},
	ShowBlacklist: {name: "show_blacklist", admin: true, run: showBlacklist},
	SetPotato:     {name: "set_potato", admin: true, run: setPotato},
	Admin:         {name: "admin", admin: true, run: admin},
	Unadmin:       {name: "unadmin", admin: true, run: unadmin},
	ListAdmins:    {name: "list_admins", admin: true, run: listAdmins},
	Save:          {name: "save", admin: true, run: save},
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		m[definitions[k].name] = k
	}

	return m
}()

// Parse splits `<trigger> <command> [args...]`. ok is false when the content isn't
// addressed to the bot at all.
func Parse(content, trigger string) (cmd Command, ok bool, err error) {
	fields := strings.Fields(content)
	if len(fields) < 2 || fields[0] != trigger {
		return Command{}, false, nil
	}

	kind, found := byName[fields[1]]
	if !found {
		return Command{}, true, fmt.Errorf("%w: %v", ErrUnknownCommand, fields[1])
	}

	return Command{Kind: kind, Args: fields[2:]}, true, nil
}

// Execute runs a command. Failed commands never change the ledger.
func Execute(ctx context.Context, cmd Command, env *Env) (Reply, error) {
	def := definitions[cmd.Kind]
	if def.admin && !env.IsAdmin {
		return Reply{}, ErrNotAdmin
	}

	return def.run(ctx, env, cmd.Args)
}

const helpText = ` === PotatoBoard Help ===
- ` + "`help`" + `: Get this message.
- ` + "`receivers <page_number>`" + `: See the most protatolific receivers of potatoes. ` + "`page_number`" + ` is optional.
- ` + "`givers <page_number>`" + `: See the most protatolific givers of potatoes. ` + "`page_number`" + ` is optional.`

const adminHelpText = `You're an admin! Here's the admin commands:
- ` + "`set_pin_channel <channel_id>`" + `: Set the channel that pinned messages to go, and adds it to the potato blacklist.
- ` + "`set_potato <emoji>`" + `: Set the given emoji to be the operative one.
- ` + "`set_threshold <number>`" + `: Set how many potatoes have to be on a message before it is pinned.
- ` + "`blacklist <channel_id>`" + `: Make the channel no longer eligible for pinning messages, regardless of potato count.
- ` + "`unblacklist <channel_id>`" + `: Unblacklist this channel so messages from it can be pinned again.
- ` + "`show_blacklist`" + `: Show which channels are ineligible for pinning messages.
- ` + "`admin <user_id>`" + `: Let this user access this bot's admin commands on this server.
- ` + "`unadmin <user_id>`" + `: Stops this user from being an admin on this server.
- ` + "`list_admins`" + `: Print a list of admins.
- ` + "`csv <receivers|givers>`" + `: Export a leaderboard as a CSV file.
- ` + "`save`" + `: Flush any in-memory state to disk.
People with any role with an Administrator privilege are always admins of this bot.`

func help(_ context.Context, env *Env, _ []string) (Reply, error) {
	text := helpText
	if env.IsAdmin {
		text += "\n" + adminHelpText
	}

	return Reply{Content: text}, nil
}

func leaderboard(metric ledger.Metric) func(context.Context, *Env, []string) (Reply, error) {
	return func(_ context.Context, env *Env, args []string) (Reply, error) {
		page := 1
		if len(args) > 0 {
			if p, err := strconv.Atoi(args[0]); err == nil {
				page = p
			}
		}

		embed := LeaderboardEmbed(env.Ledger.Page(metric, page, env.Sender))
		return Reply{Embed: &embed}, nil
	}
}

// LeaderboardEmbed renders a leaderboard page.
func LeaderboardEmbed(lb ledger.Leaderboard) discord.Embed {
	return embeds.NewBuilder().
		Title(lb.Title).
		Description(lb.Body).
		Footer(lb.Footer, "").
		Build()
}

func exportCSV(_ context.Context, env *Env, args []string) (Reply, error) {
	if len(args) == 0 {
		return Reply{}, ErrNotEnoughArgs
	}

	var metric ledger.Metric
	switch args[0] {
	case "receivers":
		metric = ledger.Received
	case "givers":
		metric = ledger.Given
	default:
		return Reply{}, fmt.Errorf("unknown report %q", args[0])
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"uid", "value"})
	for _, score := range env.Ledger.Scores(metric) {
		_ = w.Write([]string{score.UserID.String(), strconv.FormatUint(score.Count, 10)})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return Reply{}, fmt.Errorf("write csv: %w", err)
	}

	return Reply{File: &sendpart.File{Name: "stats.csv", Reader: &buf}}, nil
}

func setPinChannel(_ context.Context, env *Env, args []string) (Reply, error) {
	channelID, err := channelArg(args)
	if err != nil {
		return Reply{}, err
	}

	cfg := &env.Ledger.Config
	cfg.PinChannel = channelID

	if cfg.IsBlacklisted(channelID) {
		return Reply{Content: fmt.Sprintf("Set pins channel to %v, and it was already blacklisted", channelID.Mention())}, nil
	}

	cfg.BlacklistedChannels[channelID] = struct{}{}
	return Reply{Content: fmt.Sprintf("Set pins channel to %v and added it to the blacklist", channelID.Mention())}, nil
}

func setThreshold(_ context.Context, env *Env, args []string) (Reply, error) {
	if len(args) == 0 {
		return Reply{}, ErrNotEnoughArgs
	}

	threshold, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return Reply{}, fmt.Errorf("%q is not a number", args[0])
	}

	if threshold == 0 {
		return Reply{}, errors.New("threshold must be at least 1")
	}

	env.Ledger.Config.Threshold = threshold
	return Reply{Content: fmt.Sprintf("Threshold changed to %v", threshold)}, nil
}

func blacklist(_ context.Context, env *Env, args []string) (Reply, error) {
	channelID, err := channelArg(args)
	if err != nil {
		return Reply{}, err
	}

	cfg := &env.Ledger.Config
	if cfg.IsBlacklisted(channelID) {
		return Reply{Content: fmt.Sprintf("%v was already blacklisted", channelID.Mention())}, nil
	}

	cfg.BlacklistedChannels[channelID] = struct{}{}
	return Reply{Content: fmt.Sprintf("Blacklisted %v", channelID.Mention())}, nil
}

func unblacklist(_ context.Context, env *Env, args []string) (Reply, error) {
	channelID, err := channelArg(args)
	if err != nil {
		return Reply{}, err
	}

	cfg := &env.Ledger.Config
	if !cfg.IsBlacklisted(channelID) {
		return Reply{Content: fmt.Sprintf("%v was not blacklisted", channelID.Mention())}, nil
	}

	delete(cfg.BlacklistedChannels, channelID)
	return Reply{Content: fmt.Sprintf("Unblacklisted %v", channelID.Mention())}, nil
}

func showBlacklist(_ context.Context, env *Env, _ []string) (Reply, error) {
	channels := make([]discord.ChannelID, 0, len(env.Ledger.Config.BlacklistedChannels))
	for id := range env.Ledger.Config.BlacklistedChannels {
		channels = append(channels, id)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })

	if len(channels) == 0 {
		return Reply{Content: "No channels are blacklisted"}, nil
	}

	lines := slices.Map(channels, func(id discord.ChannelID) string { return "- " + id.Mention() })
	return Reply{Content: strings.Join(lines, "\n")}, nil
}

func setPotato(_ context.Context, env *Env, args []string) (Reply, error) {
	if len(args) == 0 {
		return Reply{}, ErrNotEnoughArgs
	}

	emoji, err := ledger.ParseEmoji(args[0])
	if err != nil {
		return Reply{}, err
	}

	old := env.Ledger.Config.TaterEmoji
	env.Ledger.Config.TaterEmoji = emoji
	return Reply{Content: fmt.Sprintf("Set potato emoji to %v (from %v)", emoji, old)}, nil
}

func admin(_ context.Context, env *Env, args []string) (Reply, error) {
	userID, err := userArg(args)
	if err != nil {
		return Reply{}, err
	}

	cfg := &env.Ledger.Config
	if cfg.IsAdmin(userID) {
		return Reply{Content: fmt.Sprintf("`%v` was already an admin", userID)}, nil
	}

	cfg.Admins[userID] = struct{}{}
	return Reply{Content: fmt.Sprintf("Added `%v` as a new admin", userID)}, nil
}

func unadmin(_ context.Context, env *Env, args []string) (Reply, error) {
	userID, err := userArg(args)
	if err != nil {
		return Reply{}, err
	}

	cfg := &env.Ledger.Config
	if !cfg.IsAdmin(userID) {
		return Reply{Content: fmt.Sprintf("`%v` was not an admin", userID)}, nil
	}

	delete(cfg.Admins, userID)
	return Reply{Content: fmt.Sprintf("Removed `%v` from being an admin", userID)}, nil
}

func listAdmins(_ context.Context, env *Env, _ []string) (Reply, error) {
	admins := make([]discord.UserID, 0, len(env.Ledger.Config.Admins))
	for id := range env.Ledger.Config.Admins {
		admins = append(admins, id)
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i] < admins[j] })

	var sb strings.Builder
	sb.WriteString("Admins:")
	for _, id := range admins {
		sb.WriteString("\n- ")
		sb.WriteString(id.Mention())
	}

	return Reply{Content: sb.String()}, nil
}

func save(ctx context.Context, env *Env, _ []string) (Reply, error) {
	if err := env.SaveCounters(ctx); err != nil {
		return Reply{}, fmt.Errorf("failed to save taters: %w", err)
	}

	return Reply{Content: "Saved this server's taters!"}, nil
}

func channelArg(args []string) (discord.ChannelID, error) {
	if len(args) == 0 {
		return 0, ErrNotEnoughArgs
	}

	sf, err := parseSnowflake(args[0], "<#")
	return discord.ChannelID(sf), err
}

func userArg(args []string) (discord.UserID, error) {
	if len(args) == 0 {
		return 0, ErrNotEnoughArgs
	}

	sf, err := parseSnowflake(args[0], "<@!", "<@")
	return discord.UserID(sf), err
}

// parseSnowflake accepts a raw ID or a mention with one of the given prefixes.
func parseSnowflake(arg string, prefixes ...string) (discord.Snowflake, error) {
	raw := arg
	for _, prefix := range prefixes {
		if strings.HasPrefix(raw, prefix) && strings.HasSuffix(raw, ">") {
			raw = strings.TrimSuffix(strings.TrimPrefix(raw, prefix), ">")
			break
		}
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%q is not a valid ID", arg)
	}

	return discord.Snowflake(id), nil
}
