package pins

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/VTGare/Taterboard/arikawautils/embeds"
	"github.com/VTGare/Taterboard/slices"
	"github.com/diamondburned/arikawa/v3/discord"
	"mvdan.cc/xurls/v2"
)

// announcement builds the embed of a new pin.
func announcement(message *discord.Message, author string, pinnedBefore int) discord.Embed {
	link := messageURL(message)

	eb := embeds.NewBuilder()
	eb.Author(author, message.Author.AvatarURL(), link)
	eb.Timestamp(message.Timestamp.Time())
	eb.AddField(embeds.ZeroWidthSpace, fmt.Sprintf("[**Click to jump to message!**](%v)", link))
	eb.Footer(fmt.Sprintf("This user has been pinned %v times before", pinnedBefore), "")

	content := message.Content
	if image, ok := findImage(message); ok {
		eb.Image(image.URL.String())
		if image.Match != "" {
			content = stripLink(content, image.Match)
		}
	}

	eb.Description(strings.TrimSpace(content))
	return eb.Build()
}

func messageURL(message *discord.Message) string {
	guild := "@me"
	if message.GuildID.IsValid() {
		guild = message.GuildID.String()
	}

	return fmt.Sprintf("https://discord.com/channels/%v/%v/%v", guild, message.ChannelID, message.ID)
}

type imageURL struct {
	URL *url.URL
	// Match is the text found in the message content, empty for attachments.
	Match string
}

// findImage prefers the first image attachment over image links in the content.
func findImage(message *discord.Message) (*imageURL, bool) {
	attachment, ok := slices.Find(message.Attachments, func(a discord.Attachment) bool {
		return a.Width != 0 || strings.HasPrefix(a.ContentType, "image/")
	})
	if ok {
		if parsed, err := url.Parse(attachment.URL); err == nil {
			return &imageURL{URL: parsed}, true
		}
	}

	for _, uri := range xurls.Strict().FindAllString(message.Content, -1) {
		parsed, err := url.Parse(uri)
		if err != nil {
			continue
		}

		if hasSuffixes(strings.ToLower(parsed.Path), "jpg", "png", "jpeg", "webp", "gif") {
			return &imageURL{URL: parsed, Match: uri}, true
		}
	}

	return nil, false
}

// stripLink removes a link from the content along with the angle brackets
// that suppress its preview.
func stripLink(content, link string) string {
	if suppressed := "<" + link + ">"; strings.Contains(content, suppressed) {
		return strings.Replace(content, suppressed, "", 1)
	}

	return strings.Replace(content, link, "", 1)
}

func hasSuffixes(str string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(str, suffix) {
			return true
		}
	}

	return false
}
