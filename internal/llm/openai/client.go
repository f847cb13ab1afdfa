// Package openai drafts gap analyses with the Chat Completions API. The
// reply text is handed back untouched on the console channel; recovery
// decides what is usable.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"estate-gap-backend/internal/llm"
	"estate-gap-backend/internal/shared/telemetry"
)

const (
	defaultTimeout = 120 * time.Second
	maxReplyBytes  = 4 << 20

	systemPrompt = "You review estate plans. Answer with a single JSON object and nothing else."
)

var apiURL = "https://api.openai.com/v1/chat/completions"

type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient validates credentials up front so a misconfigured deployment
// fails at startup. A zero timeout uses the default.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	switch {
	case strings.TrimSpace(model) == "":
		return nil, fmt.Errorf("GENERATOR_MODEL is required for OpenAI")
	case strings.TrimSpace(apiKey) == "":
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{apiKey: apiKey, model: model, httpClient: &http.Client{Timeout: timeout}}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model          string    `json:"model"`
	Messages       []message `json:"messages"`
	Temperature    float32   `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type completionReply struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// GenerateGapAnalysis sends the prompt and returns the reply on the console
// channel. A reply cut off by the token limit is returned together with
// llm.ErrTruncated.
func (c *Client) GenerateGapAnalysis(ctx context.Context, input llm.GapInput) (llm.Output, error) {
	req := completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: input.Prompt},
		},
	}
	req.ResponseFormat.Type = "json_object"

	reply, status, err := c.post(ctx, req)
	if err != nil {
		return llm.Output{}, err
	}
	if reply.Error != nil {
		return llm.Output{}, fmt.Errorf("openai http status %d: %s (%s)", status, reply.Error.Message, reply.Error.Type)
	}
	if status >= http.StatusBadRequest {
		return llm.Output{}, fmt.Errorf("openai http status %d", status)
	}
	if len(reply.Choices) == 0 {
		return llm.Output{}, errors.New("openai reply missing choices")
	}

	choice := reply.Choices[0]
	telemetry.Info("generator.response", map[string]any{
		"analysis_id":       input.AnalysisID,
		"model":             c.model,
		"finish_reason":     choice.FinishReason,
		"content_len":       len(choice.Message.Content),
		"prompt_tokens":     reply.Usage.PromptTokens,
		"completion_tokens": reply.Usage.CompletionTokens,
	})

	out := llm.Output{Console: choice.Message.Content}
	if choice.FinishReason == "length" {
		return out, fmt.Errorf("openai: %w", llm.ErrTruncated)
	}
	return out, nil
}

// post returns the decoded reply and HTTP status. Server errors are returned
// before decoding since their bodies are rarely JSON.
func (c *Client) post(ctx context.Context, body completionRequest) (completionReply, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return completionReply{}, 0, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return completionReply{}, 0, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var urlErr interface{ Timeout() bool }
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &urlErr) && urlErr.Timeout()) {
			return completionReply{}, 0, fmt.Errorf("openai request timeout: %w", err)
		}
		return completionReply{}, 0, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxReplyBytes))
		return completionReply{}, resp.StatusCode, fmt.Errorf("openai http status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return completionReply{}, resp.StatusCode, fmt.Errorf("openai read reply: %w", err)
	}
	var reply completionReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return completionReply{}, resp.StatusCode, fmt.Errorf("openai response parse: %w", err)
	}
	return reply, resp.StatusCode, nil
}

var _ llm.Client = (*Client)(nil)
