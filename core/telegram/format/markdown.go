package format

import (
	"fmt"
	"regexp"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

var (
	mdV1Specials = regexp.MustCompile("[_*`\\[]")
	mdV2Specials = regexp.MustCompile(`[_*\[\]()~` + "`" + `>#+\-=|{}.!\\]`)
)

// EscapeMarkdown prefixes every character that is special in the given
// Telegram markdown version with a backslash.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Specials.ReplaceAllString(text, `\$0`), nil
	case MarkdownV2:
		return mdV2Specials.ReplaceAllString(text, `\$0`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// Escape is EscapeMarkdown for MarkdownV1, the mode the bot sends with.
func Escape(text string) string {
	out, _ := EscapeMarkdown(text, MarkdownV1)
	return out
}
