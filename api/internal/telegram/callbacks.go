package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (r *Router) handleCallback(ctx context.Context, cb tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	cid := cb.Message.Chat.ID
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	req, ok := r.lastFor(cid)
	if !ok {
		r.send(cid, "That request has expired. Send /verify again.")
		return
	}
	switch cb.Data {
	case cbVerifyAgain:
		// drop the buttons on the old reply
		edit := tgbotapi.NewEditMessageReplyMarkup(cid, cb.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
			InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
		})
		_, _ = r.Bot.Send(edit)
		r.runVerify(ctx, cid, req)
	case cbSources:
		r.send(cid, FormatSources(req.Evidence))
	}
}
