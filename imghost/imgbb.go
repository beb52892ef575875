package imghost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stockbuddy/core"
	"stockbuddy/lib/sl"
)

// Publisher uploads transformed images to ImgBB and returns the public URL.
// A single attempt per request; the remote object is never reused.
type Publisher struct {
	uploadURL string
	apiKey    string
	client    *http.Client
	log       *slog.Logger
}

type uploadResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

func NewPublisher(conf *core.Config, log *slog.Logger, client *http.Client) *Publisher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Publisher{
		uploadURL: conf.ImgBB.UploadURL,
		apiKey:    conf.ImgBB.ApiKey,
		client:    client,
		log:       log.With(sl.Module("imgbb")),
	}
}

func (p *Publisher) Publish(ctx context.Context, data []byte) (string, error) {
	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(data))
	form.Set("key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.uploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("making request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading image: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			p.log.Error("closing response body", sl.Err(err))
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("image host returned %d: %s", resp.StatusCode, string(body))
	}

	var upload uploadResponse
	if err := json.Unmarshal(body, &upload); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if upload.Data.URL == "" {
		return "", fmt.Errorf("image host returned no url")
	}

	p.log.With(
		slog.String("url", upload.Data.URL),
		slog.Int("bytes", len(data)),
	).Info("image published")

	return upload.Data.URL, nil
}
