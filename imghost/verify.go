package imghost

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"stockbuddy/lib/sl"
)

const userAgent = "StockBuddy/1.0"

// Verifier confirms a published URL is reachable from the public internet
// and serves an image content type. The completion service fetches the
// image itself, so an unreachable URL must be rejected before the relay
// call burns quota.
type Verifier struct {
	client *http.Client
	log    *slog.Logger
}

func NewVerifier(log *slog.Logger, client *http.Client) *Verifier {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Verifier{
		client: client,
		log:    log.With(sl.Module("verify")),
	}
}

// Verify issues a header-only fetch and returns nil only if the response
// status is successful and the content type begins with image/.
func (v *Verifier) Verify(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching url: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			v.log.Error("closing response body", sl.Err(err))
		}
	}()

	contentType := resp.Header.Get("Content-Type")
	v.log.With(
		slog.String("url", rawURL),
		slog.Int("status", resp.StatusCode),
		slog.String("content_type", contentType),
	).Debug("accessibility check")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("url returned status %d", resp.StatusCode)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("url content type %q is not an image", contentType)
	}
	return nil
}
