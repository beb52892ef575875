package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"stockbuddy/core"
	"stockbuddy/lib/sl"
)

// Relay invokes the OpenRouter chat-completions API with a single-turn
// message and extracts the reply from the first choice. The client is
// injected so tests can substitute a stub transport.
type Relay struct {
	conf   *core.Config
	log    *slog.Logger
	client *http.Client
}

func NewRelay(conf *core.Config, log *slog.Logger, client *http.Client) *Relay {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &Relay{
		conf:   conf,
		log:    log.With(sl.Module("openrouter")),
		client: client,
	}
}

// Complete sends the composed message and returns the assistant's reply.
// Upstream failures are classified into faults the transport can map.
func (r *Relay) Complete(ctx context.Context, content, imageURL string) (string, error) {
	request := NewChatRequest(r.conf.OpenRouter.Model, content, imageURL, r.conf.OpenRouter.MaxTokens)
	jsonBytes, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.conf.OpenRouter.BaseURL+"/chat/completions", strings.NewReader(string(jsonBytes)))
	if err != nil {
		return "", fmt.Errorf("making request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.conf.OpenRouter.ApiKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", r.conf.OpenRouter.Referer)
	req.Header.Set("X-Title", r.conf.OpenRouter.Title)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &core.Fault{
			Kind:     core.FaultUpstream,
			Message:  "AI response failed",
			ImageURL: imageURL,
			Err:      err,
		}
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			r.log.Error("closing response body", sl.Err(err))
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var completion ChatCompletion
	if err := json.Unmarshal(body, &completion); err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return "", fmt.Errorf("decoding response: %w", err)
		}
		// error body need not be JSON, e.g. an HTML page from an intermediary
		return "", &core.Fault{
			Kind:     core.FaultUpstream,
			Message:  "AI response failed",
			Detail:   fmt.Sprintf("HTTP %d: %s", resp.StatusCode, snippet(body)),
			ImageURL: imageURL,
		}
	}

	if fault := r.classify(resp.StatusCode, &completion, imageURL); fault != nil {
		return "", fault
	}

	reply := completion.Choices[0].Message.Content

	logText := reply
	if len(logText) > 50 {
		logText = logText[:50] + "..."
	}
	r.log.With(
		slog.String("model", completion.Model),
		slog.Int("choices", len(completion.Choices)),
		slog.String("text", logText),
	).Info("chat completion")

	return reply, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func (r *Relay) classify(status int, completion *ChatCompletion, imageURL string) *core.Fault {
	upstreamMsg := ""
	if completion.Error != nil {
		upstreamMsg = completion.Error.Message
	}

	if status == http.StatusPaymentRequired && strings.Contains(upstreamMsg, "Prompt tokens limit exceeded") {
		return &core.Fault{
			Kind:     core.FaultQuotaExceeded,
			Message:  "Prompt too large",
			Detail:   "Reduce prompt size or upgrade at https://openrouter.ai/settings/credits",
			ImageURL: imageURL,
		}
	}
	if strings.Contains(upstreamMsg, "Failed to extract 1 image(s)") {
		return &core.Fault{
			Kind:     core.FaultImageExtraction,
			Message:  "Image extraction failed",
			Detail:   "Ensure the image URL is publicly accessible and valid.",
			ImageURL: imageURL,
		}
	}
	if status < 200 || status >= 300 || upstreamMsg != "" {
		return &core.Fault{
			Kind:     core.FaultUpstream,
			Message:  "AI response failed",
			Detail:   upstreamMsg,
			ImageURL: imageURL,
		}
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return &core.Fault{
			Kind:     core.FaultEmptyReply,
			Message:  "AI returned no content",
			ImageURL: imageURL,
		}
	}
	return nil
}

// ListModels fetches the identifiers of the models currently available
// upstream. Called once at startup for visibility, never per request.
func (r *Relay) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.conf.OpenRouter.BaseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.conf.OpenRouter.ApiKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching models: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			r.log.Error("closing response body", sl.Err(err))
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("listing models: HTTP %d - %s", resp.StatusCode, resp.Status)
	}

	var list ModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	models := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		models = append(models, m.Id)
	}
	return models, nil
}
