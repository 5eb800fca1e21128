package commands

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/VTGare/Taterboard/ledger"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(isAdmin bool) *Env {
	return &Env{
		Ledger:       ledger.New(ledger.DefaultConfig()),
		Sender:       42,
		IsAdmin:      isAdmin,
		SaveCounters: func(context.Context) error { return nil },
	}
}

func run(t *testing.T, env *Env, content string) (Reply, error) {
	t.Helper()

	cmd, ok, err := Parse(content, env.Ledger.Config.TriggerWord)
	require.True(t, ok)
	require.NoError(t, err)

	return Execute(context.Background(), cmd, env)
}

func TestDefinitions(t *testing.T) {
	seen := make(map[string]bool)
	for k := Kind(0); k < kindCount; k++ {
		def := definitions[k]
		assert.NotEmpty(t, def.name, "kind %d", k)
		assert.NotNil(t, def.run, "kind %v", def.name)
		assert.False(t, seen[def.name], "duplicate name %v", def.name)
		seen[def.name] = true
	}

	assert.False(t, Help.Admin())
	assert.False(t, Receivers.Admin())
	assert.False(t, Givers.Admin())
	assert.True(t, SetThreshold.Admin())
	assert.Equal(t, "set_pin_channel", SetPinChannel.String())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ok      bool
		want    Command
		wantErr error
	}{
		{name: "command", content: "taterboard help", ok: true, want: Command{Kind: Help, Args: []string{}}},
		{name: "args", content: "taterboard  receivers   3", ok: true, want: Command{Kind: Receivers, Args: []string{"3"}}},
		{name: "trigger only", content: "taterboard", ok: false},
		{name: "other message", content: "I love taterboard help", ok: false},
		{name: "trigger prefix", content: "taterboards help", ok: false},
		{name: "unknown", content: "taterboard dance", ok: true, wantErr: ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok, err := Parse(tt.content, "taterboard")
			assert.Equal(t, tt.ok, ok)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			if tt.ok {
				assert.Equal(t, tt.want, cmd)
			}
		})
	}
}

func TestAdminGate(t *testing.T) {
	env := newEnv(false)

	_, err := run(t, env, "taterboard set_threshold 10")
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.Equal(t, uint64(ledger.DefaultThreshold), env.Ledger.Config.Threshold)

	reply, err := run(t, env, "taterboard receivers")
	require.NoError(t, err)
	assert.NotNil(t, reply.Embed)
}

func TestSetThreshold(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    uint64
		wantErr bool
	}{
		{name: "valid", content: "taterboard set_threshold 10", want: 10},
		{name: "zero", content: "taterboard set_threshold 0", want: ledger.DefaultThreshold, wantErr: true},
		{name: "negative", content: "taterboard set_threshold -3", want: ledger.DefaultThreshold, wantErr: true},
		{name: "not a number", content: "taterboard set_threshold lots", want: ledger.DefaultThreshold, wantErr: true},
		{name: "missing", content: "taterboard set_threshold", want: ledger.DefaultThreshold, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(true)

			reply, err := run(t, env, tt.content)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Threshold changed to 10", reply.Content)
			}

			assert.Equal(t, tt.want, env.Ledger.Config.Threshold)
		})
	}
}

func TestSetPinChannel(t *testing.T) {
	env := newEnv(true)

	_, err := run(t, env, "taterboard set_pin_channel <#555>")
	require.NoError(t, err)

	cfg := env.Ledger.Config
	assert.Equal(t, discord.ChannelID(555), cfg.PinChannel)
	assert.True(t, cfg.IsBlacklisted(555))

	_, err = run(t, env, "taterboard set_pin_channel channel")
	assert.Error(t, err)
	assert.Equal(t, discord.ChannelID(555), env.Ledger.Config.PinChannel)
}

func TestBlacklist(t *testing.T) {
	env := newEnv(true)

	reply, err := run(t, env, "taterboard show_blacklist")
	require.NoError(t, err)
	assert.Equal(t, "No channels are blacklisted", reply.Content)

	_, err = run(t, env, "taterboard blacklist 20")
	require.NoError(t, err)
	_, err = run(t, env, "taterboard blacklist <#10>")
	require.NoError(t, err)

	reply, err = run(t, env, "taterboard blacklist 10")
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "already")

	reply, err = run(t, env, "taterboard show_blacklist")
	require.NoError(t, err)
	assert.Equal(t, "- <#10>\n- <#20>", reply.Content)

	_, err = run(t, env, "taterboard unblacklist 10")
	require.NoError(t, err)
	assert.False(t, env.Ledger.Config.IsBlacklisted(10))
	assert.True(t, env.Ledger.Config.IsBlacklisted(20))
}

func TestSetPotato(t *testing.T) {
	env := newEnv(true)

	_, err := run(t, env, "taterboard set_potato <a:spud:123>")
	require.NoError(t, err)
	assert.Equal(t, ledger.Emoji{ID: 123, Name: "spud", Animated: true}, env.Ledger.Config.TaterEmoji)

	_, err = run(t, env, "taterboard set_potato <spud>")
	assert.ErrorIs(t, err, ledger.ErrInvalidEmoji)
	assert.Equal(t, discord.EmojiID(123), env.Ledger.Config.TaterEmoji.ID)
}

func TestAdmins(t *testing.T) {
	env := newEnv(true)

	_, err := run(t, env, "taterboard admin <@!7>")
	require.NoError(t, err)
	_, err = run(t, env, "taterboard admin 3")
	require.NoError(t, err)
	assert.True(t, env.Ledger.Config.IsAdmin(7))

	reply, err := run(t, env, "taterboard list_admins")
	require.NoError(t, err)
	assert.Equal(t, "Admins:\n- <@3>\n- <@7>", reply.Content)

	_, err = run(t, env, "taterboard unadmin 7")
	require.NoError(t, err)
	assert.False(t, env.Ledger.Config.IsAdmin(7))

	reply, err = run(t, env, "taterboard unadmin 7")
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "was not an admin")
}

func TestCSV(t *testing.T) {
	env := newEnv(true)
	env.Ledger.Received[1] = 3
	env.Ledger.Received[2] = 9
	env.Ledger.Given[3] = 1

	reply, err := run(t, env, "taterboard csv receivers")
	require.NoError(t, err)
	require.NotNil(t, reply.File)
	assert.Equal(t, "stats.csv", reply.File.Name)

	body, err := io.ReadAll(reply.File.Reader)
	require.NoError(t, err)
	assert.Equal(t, "uid,value\n2,9\n1,3\n", string(body))

	_, err = run(t, env, "taterboard csv everyone")
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	env := newEnv(true)

	var saved int
	env.SaveCounters = func(context.Context) error {
		saved++
		return nil
	}

	reply, err := run(t, env, "taterboard save")
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	assert.NotEmpty(t, reply.Content)

	env.SaveCounters = func(context.Context) error { return errors.New("disk full") }
	_, err = run(t, env, "taterboard save")
	assert.ErrorContains(t, err, "disk full")
}

func TestHelp(t *testing.T) {
	reply, err := run(t, newEnv(false), "taterboard help")
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "receivers")
	assert.NotContains(t, reply.Content, "set_threshold")

	reply, err = run(t, newEnv(true), "taterboard help")
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "set_threshold")
}

func TestLeaderboardReply(t *testing.T) {
	env := newEnv(false)
	env.Ledger.Given[42] = 4

	reply, err := run(t, env, "taterboard givers 9")
	require.NoError(t, err)
	require.NotNil(t, reply.Embed)

	assert.Equal(t, "Leaderboard - Taters given", reply.Embed.Title)
	require.NotNil(t, reply.Embed.Footer)
	assert.Contains(t, reply.Embed.Footer.Text, "Page 1/1")
	assert.False(t, reply.Empty())
}
