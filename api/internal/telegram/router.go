// Package telegram exposes claim verification as a Telegram chat bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"claim-verifier/api/internal/logger"
	"claim-verifier/api/internal/util"
	"claim-verifier/api/internal/verify"
)

const (
	maxReplyRunes  = 3900
	defaultTimeout = 90 * time.Second
)

const usage = `Send a claim with optional evidence:
/verify <claim> | <source>: <content> | <source>: <content>

Example:
/verify The Eiffel Tower is in Paris. | Wikipedia: The Eiffel Tower is located in Paris, France.

Commands: /verify, /health`

// Sender is the part of *tgbotapi.BotAPI the router needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Router struct {
	Bot      Sender
	Verifier verify.ClaimVerifier
	Model    string
	// Timeout bounds one /verify; zero means 90s.
	Timeout time.Duration

	last sync.Map // chatID -> *lastRequest
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, *upd.CallbackQuery)
		return
	}
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(ctx, upd.Message)
		return
	}
	if upd.Message.Text != "" {
		r.send(upd.Message.Chat.ID, usage)
	}
}

func (r *Router) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, usage)
	case "health":
		r.send(cid, "✅ OK, model: "+r.Model)
	case "verify":
		req, err := ParseVerifyCommand(msg.CommandArguments())
		if err != nil {
			r.SendError(cid, err)
			return
		}
		r.runVerify(ctx, cid, req)
	default:
		r.send(cid, "Unknown command. "+usage)
	}
}

func (r *Router) runVerify(ctx context.Context, chatID int64, req VerifyRequest) {
	log := logger.FromContext(ctx).With("chat_id", chatID)
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(logger.ContextWithLogger(ctx, log), timeout)
	defer cancel()

	r.last.Store(chatID, &lastRequest{req: req, at: time.Now()})
	res := r.Verifier.VerifyClaim(ctx, req.Claim, req.Evidence)
	log.Info("claim verified over telegram", "label", res.Label(), "evidence", len(req.Evidence))

	msg := tgbotapi.NewMessage(chatID, util.Truncate(FormatResult(req.Claim, res), maxReplyRunes))
	msg.ReplyMarkup = makeResultKeyboard(len(req.Evidence) > 0)
	if _, err := r.Bot.Send(msg); err != nil {
		log.Warn("telegram send failed", "error", err)
	}
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, util.Truncate(text, maxReplyRunes))
	_, _ = r.Bot.Send(msg)
}

// SendError reports err without leaking provider details. A malformed command is
// answered with the usage text.
func (r *Router) SendError(chatID int64, err error) {
	var perr *verify.ProviderError
	switch {
	case errors.As(err, &perr):
		r.send(chatID, "❌ "+perr.Explanation())
	case errors.Is(err, ErrEmptyClaim):
		r.send(chatID, "❌ "+err.Error()+"\n\n"+usage)
	default:
		r.send(chatID, fmt.Sprintf("❌ Error: %v", err))
	}
}
