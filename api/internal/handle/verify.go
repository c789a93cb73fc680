package handle

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"claim-verifier/api/internal/logger"
	"claim-verifier/api/internal/verify"
)

type EvidenceDTO struct {
	Source  string `json:"source" validate:"max=512"`
	Content string `json:"content" validate:"max=20000"`
	URL     string `json:"url,omitempty" validate:"omitempty,url"`
}

type VerifyRequest struct {
	Claim    string        `json:"claim" validate:"required,max=2000"`
	Evidence []EvidenceDTO `json:"evidence" validate:"max=50,dive"`
}

type BatchRequest struct {
	Items []VerifyRequest `json:"items" validate:"max=100,dive"`
}

type BatchResponse struct {
	BatchID string          `json:"batch_id"`
	Results []verify.Result `json:"results"`
}

func (req *VerifyRequest) trim() {
	req.Claim = strings.TrimSpace(req.Claim)
	for i := range req.Evidence {
		req.Evidence[i].Source = strings.TrimSpace(req.Evidence[i].Source)
		req.Evidence[i].Content = strings.TrimSpace(req.Evidence[i].Content)
		req.Evidence[i].URL = strings.TrimSpace(req.Evidence[i].URL)
	}
}

func (req *VerifyRequest) evidence() []verify.EvidenceItem {
	out := make([]verify.EvidenceItem, len(req.Evidence))
	for i, e := range req.Evidence {
		out[i] = verify.EvidenceItem{Source: e.Source, Content: e.Content, URL: e.URL}
	}
	return out
}

// Verify always answers 200 once the request is valid; provider trouble shows up as a
// fallback verdict.
func (h *Handle) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !decode(w, r, &req) {
		return
	}
	req.trim()
	if !h.valid(w, req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline(r))
	defer cancel()

	res := h.v.VerifyClaim(ctx, req.Claim, req.evidence())
	writeJSON(w, http.StatusOK, res)
}

func (h *Handle) VerifyBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !decode(w, r, &req) {
		return
	}
	for i := range req.Items {
		req.Items[i].trim()
	}
	if !h.valid(w, req) {
		return
	}

	batchID := uuid.NewString()
	log := logger.FromContext(r.Context()).With("batch_id", batchID)
	ctx, cancel := context.WithTimeout(logger.ContextWithLogger(r.Context(), log), requestDeadline(r))
	defer cancel()

	items := make([]verify.BatchItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = verify.BatchItem{Claim: it.Claim, Evidence: it.evidence()}
	}
	log.Info("verifying batch", "items", len(items))
	results := h.v.VerifyClaimBatch(ctx, items)
	writeJSON(w, http.StatusOK, BatchResponse{BatchID: batchID, Results: results})
}
