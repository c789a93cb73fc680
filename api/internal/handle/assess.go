package handle

import (
	"net/http"

	"claim-verifier/api/internal/credibility"
)

type AssessRequest struct {
	Query    string        `json:"query" validate:"max=2000"`
	Evidence []EvidenceDTO `json:"evidence" validate:"required,min=1,max=50,dive"`
}

type AssessResponse struct {
	Evaluations []credibility.Evaluation `json:"evaluations"`
	NextQuery   string                   `json:"next_query,omitempty"`
}

// Assess scores evidence sources without calling the model.
func (h *Handle) Assess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if !decode(w, r, &req) {
		return
	}
	if !h.valid(w, req) {
		return
	}
	out := AssessResponse{Evaluations: make([]credibility.Evaluation, len(req.Evidence))}
	trust := make([]float64, len(req.Evidence))
	for i, e := range req.Evidence {
		ev := credibility.Assess(e.Source, e.URL, e.Content)
		out.Evaluations[i] = ev
		trust[i] = ev.Trust
	}
	if req.Query != "" {
		out.NextQuery = credibility.NextQuery(req.Query, trust)
	}
	writeJSON(w, http.StatusOK, out)
}
