package telegram

import (
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// attempted/correct, optionally followed by the percent sign the group used to post
var reportPattern = regexp.MustCompile(`^(\d+)/(\d+)%?$`)

// ParseReport extracts attempted and correct counts from a chat message.
// It does not check correct <= attempted.
func ParseReport(text string) (attempted, correct int, ok bool) {
	m := reportPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, 0, false
	}

	attempted, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	correct, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}

	return attempted, correct, true
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return defaultDisplayName
	}

	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	switch {
	case name != "":
		return name
	case u.UserName != "":
		return u.UserName
	default:
		return defaultDisplayName
	}
}
