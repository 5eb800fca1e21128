package pins

import (
	"testing"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncementImage(t *testing.T) {
	tests := []struct {
		name        string
		message     discord.Message
		image       string
		description string
	}{
		{
			name: "attachment",
			message: discord.Message{
				Content: "look https://example.com/a.png",
				Attachments: []discord.Attachment{
					{URL: "https://cdn.example.com/doc.txt", ContentType: "text/plain"},
					{URL: "https://cdn.example.com/spud.jpg", ContentType: "image/jpeg", Width: 64},
				},
			},
			image:       "https://cdn.example.com/spud.jpg",
			description: "look https://example.com/a.png",
		},
		{
			name:        "link in content",
			message:     discord.Message{Content: "look https://example.com/a.PNG at this"},
			image:       "https://example.com/a.PNG",
			description: "look  at this",
		},
		{
			name:        "link in parentheses",
			message:     discord.Message{Content: "look (https://example.com/a.png)"},
			image:       "https://example.com/a.png",
			description: "look ()",
		},
		{
			name:        "suppressed preview",
			message:     discord.Message{Content: "<https://example.com/a.png>"},
			image:       "https://example.com/a.png",
			description: "",
		},
		{
			name:        "trailing comma",
			message:     discord.Message{Content: "see https://example.com/a.png, nice"},
			image:       "https://example.com/a.png",
			description: "see , nice",
		},
		{
			name:        "non-image link first",
			message:     discord.Message{Content: "https://example.com/page and https://example.com/b.gif"},
			image:       "https://example.com/b.gif",
			description: "https://example.com/page and",
		},
		{
			name:        "no image",
			message:     discord.Message{Content: "just text https://example.com"},
			description: "just text https://example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.message.GuildID = 1
			tt.message.ChannelID = 2
			tt.message.ID = 3

			embed := announcement(&tt.message, "spudman", 2)

			assert.Equal(t, tt.description, embed.Description)
			if tt.image == "" {
				assert.Nil(t, embed.Image)
			} else {
				require.NotNil(t, embed.Image)
				assert.Equal(t, tt.image, embed.Image.URL)
			}

			require.NotNil(t, embed.Footer)
			assert.Equal(t, "This user has been pinned 2 times before", embed.Footer.Text)
			require.Len(t, embed.Fields, 1)
			assert.Contains(t, embed.Fields[0].Value, "https://discord.com/channels/1/2/3")
		})
	}
}
