package verify

import (
	"fmt"
	"strings"

	"claim-verifier/api/internal/credibility"
)

const noEvidence = "No evidence provided."

const promptTemplate = `You are a professional fact-checker tasked with verifying claims based on provided evidence.

CLAIM TO VERIFY: %s

EVIDENCE PROVIDED:
%s

INSTRUCTIONS:
1. Carefully analyze the claim against the provided evidence
2. Determine if the evidence SUPPORTS, REFUTES, or provides NOT_ENOUGH_EVIDENCE for the claim
3. Provide a confidence score (0.0 to 1.0) based on:
   - Quality and reliability of evidence sources
   - Strength of connection between evidence and claim
   - Consistency across multiple evidence pieces
4. Explain your reasoning clearly and concisely

CLASSIFICATION RULES:
- SUPPORTED: Evidence clearly confirms the claim is true
- REFUTED: Evidence clearly shows the claim is false
- NOT_ENOUGH_EVIDENCE: Evidence is insufficient, contradictory, or doesn't address the claim

RESPONSE FORMAT:
You must respond with valid JSON matching this exact structure:
{
    "label": "SUPPORTED" | "REFUTED" | "NOT_ENOUGH_EVIDENCE",
    "confidence": <float between 0.0 and 1.0>,
    "explanation": "<detailed explanation of your reasoning>"
}

IMPORTANT: Your response must be valid JSON only, no additional text.`

// BuildPrompt renders the verification prompt for claim and evidence.
func BuildPrompt(claim string, evidence []EvidenceItem) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(claim), FormatEvidence(evidence))
}

// FormatEvidence renders evidence as numbered blocks. Items with a URL carry a
// source credibility hint.
func FormatEvidence(evidence []EvidenceItem) string {
	if len(evidence) == 0 {
		return noEvidence
	}
	blocks := make([]string, 0, len(evidence))
	for i, item := range evidence {
		var b strings.Builder
		fmt.Fprintf(&b, "Evidence %d:\n", i+1)
		if s := strings.TrimSpace(item.Source); s != "" {
			fmt.Fprintf(&b, "Source: %s\n", s)
		}
		if u := strings.TrimSpace(item.URL); u != "" {
			a := credibility.Score(u)
			fmt.Fprintf(&b, "URL: %s\nSource credibility: %.2f\n", u, a.Score)
		}
		if c := strings.TrimSpace(item.Content); c != "" {
			fmt.Fprintf(&b, "Content: %s\n", c)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}
