package telegram

import "time"

// lastRequest is the most recent /verify per chat, used by the result buttons.
type lastRequest struct {
	req VerifyRequest
	at  time.Time
}

const lastRequestTTL = 30 * time.Minute

func (r *Router) lastFor(chatID int64) (VerifyRequest, bool) {
	v, ok := r.last.Load(chatID)
	if !ok {
		return VerifyRequest{}, false
	}
	lr := v.(*lastRequest)
	if time.Since(lr.at) > lastRequestTTL {
		r.last.Delete(chatID)
		return VerifyRequest{}, false
	}
	return lr.req, true
}
