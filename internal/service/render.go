package service

import (
	"fmt"
	"strings"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mattn/go-runewidth"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
)

const maxNameWidth = 16

var medals = [...]string{"🥇", "🥈", "🥉"}

// terminal cell widths, independent of the host locale
var cells = &runewidth.Condition{StrictEmojiNeutral: true}

// escapes the two characters MarkdownV2 reserves inside a pre block
var preEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`")

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

// RenderLeaderboard formats lb as a MarkdownV2 message with a monospace table.
// limit > 0 caps the number of rows.
func RenderLeaderboard(lb entities.Leaderboard, limit int) string {
	entries := lb.Entries
	hidden := 0
	if limit > 0 && len(entries) > limit {
		hidden = len(entries) - limit
		entries = entries[:limit]
	}

	names := make([]string, len(entries))
	nameWidth := cells.StringWidth("Nome")
	for i, e := range entries {
		names[i] = cells.Truncate(singleLine(e.DisplayName), maxNameWidth, "…")
		nameWidth = max(nameWidth, cells.StringWidth(names[i]))
	}

	var sb strings.Builder

	sb.WriteString("🏆 *RANKING FINAL DO DIA* 🏆\n")
	sb.WriteString(md(fmt.Sprintf("📅 %02d/%02d/%d", lb.Date.Day, int(lb.Date.Month), lb.Date.Year)))
	sb.WriteString("\n\n```\n")

	sb.WriteString(fmt.Sprintf("%-3s %-*s %5s %8s %7s\n", "#", nameWidth, "Nome", "Dias", "Questões", "Acertos"))
	if len(entries) == 0 {
		sb.WriteString("(ninguém reportou ainda)\n")
	}
	for i, e := range entries {
		name := preEscaper.Replace(cells.FillRight(names[i], nameWidth))
		sb.WriteString(fmt.Sprintf("%s %s %5d %8d %7d\n",
			rankMarker(e.Position), name, e.EffectiveStreak, e.TotalQuestions, e.TotalCorrect))
	}
	sb.WriteString("```")

	if hidden > 0 {
		sb.WriteString("\n")
		sb.WriteString(md(fmt.Sprintf("… e mais %d participante(s)", hidden)))
	}

	sb.WriteString("\n\n")
	sb.WriteString(md("Envie o resultado do dia como questões/acertos, ex.: 20/15"))

	return sb.String()
}

// rankMarker is three display columns wide: a medal plus a space, or "N.".
func rankMarker(position int) string {
	if position >= 1 && position <= len(medals) {
		return medals[position-1] + " "
	}
	return fmt.Sprintf("%-3s", fmt.Sprintf("%d.", position))
}

// singleLine turns line breaks, tabs and other control characters into spaces.
func singleLine(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}
