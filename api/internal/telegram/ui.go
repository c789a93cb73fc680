package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"claim-verifier/api/internal/credibility"
	"claim-verifier/api/internal/verify"
)

const (
	cbVerifyAgain = "verify_again"
	cbSources     = "verify_sources"
)

func makeResultKeyboard(withSources bool) tgbotapi.InlineKeyboardMarkup {
	row := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔁 Check again", cbVerifyAgain))
	if withSources {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("📊 Sources", cbSources))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func labelBadge(l verify.Label) string {
	switch l {
	case verify.LabelSupported:
		return "✅ SUPPORTED"
	case verify.LabelRefuted:
		return "❌ REFUTED"
	default:
		return "❔ NOT ENOUGH EVIDENCE"
	}
}

// FormatResult renders a verdict as plain text.
func FormatResult(claim string, res verify.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\n\n", claim)
	fmt.Fprintf(&b, "%s (confidence %.0f%%)\n\n", labelBadge(res.Label()), res.Confidence()*100)
	b.WriteString(res.Explanation())
	return b.String()
}

// FormatSources lists credibility and trust per evidence item.
func FormatSources(evidence []verify.EvidenceItem) string {
	if len(evidence) == 0 {
		return "No evidence was given."
	}
	var b strings.Builder
	b.WriteString("Sources:\n")
	for i, e := range evidence {
		ev := credibility.Assess(e.Source, e.URL, e.Content)
		name := e.Source
		if name == "" {
			name = ev.Domain
		}
		fmt.Fprintf(&b, "%d. %s: credibility %.2f, trust %.2f (%s)\n", i+1, name, ev.Score, ev.Trust, ev.Stance)
	}
	return strings.TrimRight(b.String(), "\n")
}
