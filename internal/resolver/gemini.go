package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// =============================================================================
// GEMINI-BACKED RESOLVER
// =============================================================================
// Drives the intent resolver directly against the Gemini API with JSON
// structured output, for deployments without the app backend's resolve
// endpoint in between.

const resolverSystemPrompt = `You are the navigation intent resolver for a note workspace app.
Given the user's message and the conversation context, respond with a single JSON object:
{"resolution": {"action": "...", "message": "...", "success": true|false, ...},
 "suggestions": {...} (optional), "clarification": {...} (optional)}

Valid actions: select_option, reshow_options, open_workspace, open_entry,
create_workspace, rename_workspace, delete_workspace, delete_entry,
open_panel, go_home, show_list, answer_from_context, clarify, error.

Rules:
- When the context carries pendingOptions and the message picks one, use
  select_option with selectedIndex (1-based).
- When the target is ambiguous, use clarify and return options instead of guessing.
- message is the short assistant reply shown to the user.`

// GeminiConfig configures the Gemini resolver client.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiClient implements Client on the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed resolver.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini resolver: API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini resolver: create client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Resolve sends the request as a JSON prompt and decodes the model's
// structured reply.
func (c *GeminiClient) Resolve(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("gemini resolver: marshal request: %w", err)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(string(payload)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(resolverSystemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0.1),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini resolver: generate: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini resolver: empty response")
	}
	text = stripCodeFence(text)

	var out Response
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("gemini resolver: decode response: %w", err)
	}
	return &out, nil
}

// Retrieve answers a meta/correction/follow-up/doc question from the
// supplied context bundle.
func (c *GeminiClient) Retrieve(ctx context.Context, req RetrievalRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("gemini retrieval: marshal request: %w", err)
	}

	system := "You answer short questions about an ongoing chat with a note workspace app. " +
		"Use only the provided context. Reply with plain text, two sentences at most."

	result, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(string(payload)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.2),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini retrieval: generate: %w", err)
	}
	return strings.TrimSpace(result.Text()), nil
}

// ClassifyShowAll is the lightweight classifier behind the show-all
// shortcut: does the message ask to expand the recent preview into the
// full list?
func (c *GeminiClient) ClassifyShowAll(ctx context.Context, message, previewTitle string) (bool, error) {
	prompt := fmt.Sprintf(
		"The assistant recently showed a preview titled %q. Does the user message %q ask to see the full list? Answer yes or no.",
		previewTitle, message,
	)

	result, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)},
	)
	if err != nil {
		return false, fmt.Errorf("show-all classifier: generate: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(result.Text()))
	return strings.HasPrefix(answer, "yes"), nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
