package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/diamondburned/arikawa/v3/discord"
)

// ErrInvalidEmoji is returned when a string can't be parsed as an emoji.
var ErrInvalidEmoji = errors.New("invalid emoji")

// Emoji identifies the reaction that counts as a tater. Custom emojis are
// compared by ID, unicode ones by name.
type Emoji struct {
	ID       discord.EmojiID
	Name     string
	Animated bool
}

// ParseEmoji accepts `<:name:id>`, `<a:name:id>` or a unicode emoji.
func ParseEmoji(s string) (Emoji, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return Emoji{}, fmt.Errorf("%w: %q", ErrInvalidEmoji, s)
	}

	if !strings.HasPrefix(s, "<") {
		if strings.ContainsAny(s, "<>:") {
			return Emoji{}, fmt.Errorf("%w: %q", ErrInvalidEmoji, s)
		}

		return Emoji{Name: s}, nil
	}

	if !strings.HasSuffix(s, ">") {
		return Emoji{}, fmt.Errorf("%w: %q", ErrInvalidEmoji, s)
	}

	parts := strings.Split(strings.Trim(s, "<>"), ":")
	if len(parts) != 3 || (parts[0] != "" && parts[0] != "a") || parts[1] == "" {
		return Emoji{}, fmt.Errorf("%w: %q", ErrInvalidEmoji, s)
	}

	id, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil || id == 0 {
		return Emoji{}, fmt.Errorf("%w: bad id in %q", ErrInvalidEmoji, s)
	}

	return Emoji{
		ID:       discord.EmojiID(id),
		Name:     parts[1],
		Animated: parts[0] == "a",
	}, nil
}

// Matches reports whether a reaction emoji is this emoji.
func (e Emoji) Matches(other discord.Emoji) bool {
	if e.ID.IsValid() {
		return other.ID == e.ID
	}

	return !other.ID.IsValid() && other.Name == e.Name
}

func (e Emoji) String() string {
	if !e.ID.IsValid() {
		return e.Name
	}

	if e.Animated {
		return fmt.Sprintf("<a:%v:%v>", e.Name, uint64(e.ID))
	}

	return fmt.Sprintf("<:%v:%v>", e.Name, uint64(e.ID))
}
