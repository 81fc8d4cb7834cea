package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"roamwyth/internal/observability"
)

const upstreamLLM = "llm"

type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// LLMClient calls an OpenAI-compatible chat completions endpoint. A single
// request is made per call; failures are surfaced, never retried.
type LLMClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewLLMClient(baseURL, apiKey, model string) *LLMClient {
	return &LLMClient{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

func (c *LLMClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete returns the text of the first choice.
func (c *LLMClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if !c.Configured() {
		return "", newError(ErrServiceUnavailable, "AI features are not configured")
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		observability.RecordUpstream(upstreamLLM, observability.OutcomeError)
		log.Printf("warning: llm request failed: %v", err)
		return "", newError(ErrBadGateway, "AI provider request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		observability.RecordUpstream(upstreamLLM, observability.OutcomeRateLimited)
		return "", newError(ErrRateLimited, "AI provider rate limit reached, try again later")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		observability.RecordUpstream(upstreamLLM, observability.OutcomeError)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("warning: llm returned status %d: %s", resp.StatusCode, body)
		return "", newError(ErrBadGateway, "AI provider returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		observability.RecordUpstream(upstreamLLM, observability.OutcomeUnparseable)
		return "", newError(ErrUpstreamUnparseable, "AI provider returned an unreadable response")
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		observability.RecordUpstream(upstreamLLM, observability.OutcomeUnparseable)
		return "", newError(ErrUpstreamUnparseable, "AI provider returned an empty response")
	}
	observability.RecordUpstream(upstreamLLM, observability.OutcomeSuccess)
	return decoded.Choices[0].Message.Content, nil
}

// CompleteJSON runs Complete and decodes the JSON document in the reply into v.
func (c *LLMClient) CompleteJSON(ctx context.Context, messages []ChatMessage, v any) error {
	text, err := c.Complete(ctx, messages)
	if err != nil {
		return err
	}
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return newError(ErrUpstreamUnparseable, "AI response did not match the expected shape")
	}
	return nil
}

// ExtractJSON pulls a JSON document out of model output. It accepts raw JSON,
// ```json fenced blocks, bare fences and JSON preceded or followed by prose.
func ExtractJSON(text string) ([]byte, error) {
	text = strings.TrimSpace(text)

	if start := strings.Index(text, "```"); start >= 0 {
		inner := text[start+3:]
		if nl := strings.IndexByte(inner, '\n'); nl >= 0 && !strings.ContainsAny(inner[:nl], "{[") {
			inner = inner[nl+1:]
		}
		if end := strings.Index(inner, "```"); end >= 0 {
			inner = inner[:end]
		}
		text = strings.TrimSpace(inner)
	}

	if json.Valid([]byte(text)) {
		return []byte(text), nil
	}

	open := strings.IndexAny(text, "{[")
	if open < 0 {
		return nil, newError(ErrUpstreamUnparseable, "AI response did not contain JSON")
	}
	closer := byte('}')
	if text[open] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end <= open {
		return nil, newError(ErrUpstreamUnparseable, "AI response did not contain JSON")
	}
	candidate := []byte(text[open : end+1])
	if !json.Valid(candidate) {
		return nil, newError(ErrUpstreamUnparseable, "AI response contained malformed JSON")
	}
	return candidate, nil
}

func textMessage(role, text string) ChatMessage {
	return ChatMessage{Role: role, Content: text}
}

func imageMessage(text, mimeType, base64Data string) ChatMessage {
	return ChatMessage{Role: "user", Content: []contentPart{
		{Type: "text", Text: text},
		{Type: "image_url", ImageURL: &imageURL{URL: fmt.Sprintf("data:%s;base64,%s", mimeType, base64Data)}},
	}}
}
