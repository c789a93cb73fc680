package telegram

import (
	"errors"
	"strings"

	"claim-verifier/api/internal/verify"
)

var ErrEmptyClaim = errors.New("claim is empty")

// VerifyRequest is a parsed /verify command.
type VerifyRequest struct {
	Claim    string
	Evidence []verify.EvidenceItem
}

// ParseVerifyCommand reads "claim | source: content | ...". A segment without ": " is
// content with no source; a source that looks like a URL is kept as the item URL too.
func ParseVerifyCommand(args string) (VerifyRequest, error) {
	parts := strings.Split(args, "|")
	req := VerifyRequest{Claim: strings.TrimSpace(parts[0])}
	if req.Claim == "" {
		return VerifyRequest{}, ErrEmptyClaim
	}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var item verify.EvidenceItem
		if src, content, ok := strings.Cut(p, ": "); ok && strings.TrimSpace(src) != "" {
			item.Source = strings.TrimSpace(src)
			item.Content = strings.TrimSpace(content)
		} else {
			item.Content = p
		}
		if strings.Contains(item.Source, "://") {
			item.URL = item.Source
		}
		req.Evidence = append(req.Evidence, item)
	}
	return req, nil
}
