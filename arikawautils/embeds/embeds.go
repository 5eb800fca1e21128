package embeds

import (
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
)

const (
	ColorTater discord.Color = 0xc8a165
	ColorRed   discord.Color = 0xde180c
)

// ZeroWidthSpace is used for field names that shouldn't show up.
const ZeroWidthSpace = "\u200b"

type Builder struct {
	embed *discord.Embed
}

func NewBuilder() *Builder {
	return &Builder{
		embed: &discord.Embed{
			Type:  discord.NormalEmbed,
			Color: ColorTater,
		},
	}
}

func (eb *Builder) Build() discord.Embed {
	return *eb.embed
}

func (eb *Builder) Title(title string) *Builder {
	eb.embed.Title = title
	return eb
}

// Description sets the description, cutting it to the API limit.
func (eb *Builder) Description(desc string) *Builder {
	eb.embed.Description = truncate(desc, 4096)
	return eb
}

func (eb *Builder) AddField(name, value string, inline ...bool) *Builder {
	i := false
	if len(inline) > 0 {
		i = inline[0]
	}

	eb.embed.Fields = append(eb.embed.Fields, discord.EmbedField{
		Name: name, Value: value, Inline: i,
	})

	return eb
}

func (eb *Builder) Image(url string) *Builder {
	eb.embed.Image = &discord.EmbedImage{
		URL: url,
	}

	return eb
}

func (eb *Builder) Author(name, icon, url string) *Builder {
	eb.embed.Author = &discord.EmbedAuthor{
		Name: name,
		Icon: icon,
		URL:  url,
	}
	return eb
}

func (eb *Builder) Timestamp(t time.Time) *Builder {
	eb.embed.Timestamp = discord.NewTimestamp(t)
	return eb
}

func (eb *Builder) Footer(text, icon string) *Builder {
	eb.embed.Footer = &discord.EmbedFooter{
		Text: text,
		Icon: icon,
	}

	return eb
}

// ErrorTemplate turns the embed into a red error message.
func (eb *Builder) ErrorTemplate(message string) *Builder {
	eb.Title("🛑 An error occurred").Description(message)
	eb.embed.Color = ColorRed
	return eb
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit-1]) + "…"
}
