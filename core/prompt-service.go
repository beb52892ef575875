package core

import (
	"context"

	"stockbuddy/storage"
)

// Reply is what the pipeline hands back to a transport on success.
type Reply struct {
	Text     string
	ImageURL string // empty when the turn carried no image
}

// Upload describes a request-scoped uploaded file already written to disk.
// The pipeline removes the file on every exit path.
type Upload struct {
	Path     string
	Size     int64
	MimeType string
}

type PromptService interface {
	Send(ctx context.Context, ownerId string, content string, upload *Upload) (*Reply, error)
	History(ctx context.Context, ownerId string) ([]storage.Turn, error)
}
