package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model answers with no usable
// candidate.
var ErrEmptyResponse = errors.New("synth: model returned no content")

// Gemini is the production synthesizer backed by the Gemini API. The
// client reads GEMINI_API_KEY from the environment.
type Gemini struct {
	cli   *genai.Client
	model string
}

// NewGemini creates a Gemini-backed synthesizer for the given model.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("synth: create client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Gemini{cli: cli, model: model}, nil
}

// payload is the JSON shape we ask the model to produce.
type payload struct {
	Description string `json:"description"`
	Body        string `json:"body"`
}

// Synthesize asks for application/json and decodes the single candidate.
func (g *Gemini) Synthesize(ctx context.Context, req Request) (*Result, error) {
	prompt := BuildPrompt(req)

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, fmt.Errorf("synth: generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	var out payload
	text := resp.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("synth: decode response: %w", err)
	}
	if strings.TrimSpace(out.Description) == "" && strings.TrimSpace(out.Body) == "" {
		return nil, ErrEmptyResponse
	}
	return &Result{Description: out.Description, Body: out.Body}, nil
}

// BuildPrompt assembles the synthesis prompt. Kept separate from the
// client so the fake synthesizer and tests can inspect it.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You maintain design records for a codebase. Write a design record for the file below.\n")
	b.WriteString("Respond as JSON: {\"description\": one sentence, \"body\": markdown}.\n\n")

	switch req.Hint {
	case HintNewFile:
		b.WriteString("This file has no record yet.\n")
	case HintContentOnly:
		b.WriteString("Implementation changed; the public interface did not. Update the record accordingly.\n")
	case HintContentChanged:
		b.WriteString("This non-code file changed.\n")
	case HintInterfaceChanged:
		b.WriteString("The public interface changed. Revise the record to match.\n")
	}

	fmt.Fprintf(&b, "\n[FILE] %s\n", req.Path)
	if req.Interface != "" {
		b.WriteString("\n[INTERFACE]\n")
		b.WriteString(req.Interface)
	}
	if req.Prior != "" {
		b.WriteString("\n[PRIOR RECORD]\n")
		b.WriteString(req.Prior)
	}
	b.WriteString("\n[SOURCE]\n")
	b.WriteString(req.Source)
	return b.String()
}
