// Package gemini is the Google Gemini backend for claim verification.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"claim-verifier/api/internal/verify"
)

const systemInstruction = `You are a careful fact-checking assistant. Judge claims only against the evidence you are given.
Reply with a single JSON object with the keys "label", "confidence" and "explanation". Any text outside the JSON is an error.`

// Engine holds one genai client for the life of the process.
type Engine struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// New dials nothing; the client connects lazily on the first call.
func New(ctx context.Context, cfg verify.Config, opts ...option.ClientOption) (*Engine, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, fmt.Errorf("gemini: %w", verify.ErrMissingAPIKey)
	}
	name := strings.TrimSpace(cfg.ModelName)
	if name == "" {
		name = verify.DefaultModelName
	}
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(key)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	m := cl.GenerativeModel(name)
	m.SetTemperature(cfg.Temperature)
	m.SetCandidateCount(1)
	m.ResponseMIMEType = "application/json"
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}
	return &Engine{client: cl, model: m, name: name}, nil
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.name }

// Invoke sends prompt as a single user turn and returns the reply text.
func (e *Engine) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := e.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", &verify.ProviderError{Category: verify.CategoryBlocked, Err: err}
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", fmt.Errorf("gemini generate: %w", verify.ErrEmptyResponse)
	}
	return txt, nil
}

func (e *Engine) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	return e.client.Close()
}

// firstText joins the text parts of the first candidate that has content.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
