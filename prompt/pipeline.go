package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"stockbuddy/core"
	"stockbuddy/lib/sl"
	"stockbuddy/storage"
	"stockbuddy/tokens"
)

// Collaborator contracts, satisfied by imaging, imghost, tokens and ai.
// Each is injected so tests can substitute doubles.

type Transformer interface {
	Transform(path string) ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, data []byte) (string, error)
}

type Verifier interface {
	Verify(ctx context.Context, url string) error
}

type Budgeter interface {
	Estimate(content, imageURL string) (tokens.Budget, error)
}

type Relay interface {
	Complete(ctx context.Context, content, imageURL string) (string, error)
}

// Service runs the prompt relay pipeline: validate, persist the user turn,
// transform/publish/verify the image, check the token budget, call the
// completion service, persist the assistant turn. Each request gets its own
// pass; no stage is retried and any failure is terminal.
type Service struct {
	log         *slog.Logger
	store       storage.ConversationStore
	transformer Transformer
	publisher   Publisher
	verifier    Verifier
	budgeter    Budgeter
	relay       Relay
}

func NewService(
	log *slog.Logger,
	store storage.ConversationStore,
	transformer Transformer,
	publisher Publisher,
	verifier Verifier,
	budgeter Budgeter,
	relay Relay,
) *Service {
	return &Service{
		log:         log.With(sl.Module("pipeline")),
		store:       store,
		transformer: transformer,
		publisher:   publisher,
		verifier:    verifier,
		budgeter:    budgeter,
		relay:       relay,
	}
}

// Send processes one chat turn. The user turn is persisted before any image
// or relay work so user intent survives downstream failures; the assistant
// turn is persisted only after a successful completion. A failed relay
// therefore leaves an unanswered user turn, which is accepted behavior.
// The upload file, when present, is removed on every exit path.
func (s *Service) Send(ctx context.Context, ownerId string, content string, upload *core.Upload) (*core.Reply, error) {
	start := time.Now()
	log := s.log.With(slog.String("owner", ownerId))

	if upload != nil {
		defer func() {
			if err := os.Remove(upload.Path); err != nil && !os.IsNotExist(err) {
				log.Error("removing upload file", sl.Err(err))
			}
		}()
	}

	if fault := validateContent(content, upload != nil); fault != nil {
		log.Warn("validation rejected", sl.Stage(fault.Stage()), sl.Err(fault))
		return nil, fault
	}
	if fault := validateUpload(upload); fault != nil {
		log.Warn("validation rejected", sl.Stage(fault.Stage()), sl.Err(fault))
		return nil, fault
	}

	if err := s.store.Append(ctx, ownerId, storage.RoleUser, content); err != nil {
		return nil, &core.Fault{
			Kind:    core.FaultStorage,
			Message: "Failed to save prompt",
			Err:     err,
		}
	}

	imageURL := ""
	if upload != nil {
		url, fault := s.processImage(ctx, log, upload)
		if fault != nil {
			log.Warn("image stage failed", sl.Stage(fault.Stage()), sl.Err(fault))
			return nil, fault
		}
		imageURL = url
	}

	budget, err := s.budgeter.Estimate(content, imageURL)
	if err != nil {
		return nil, &core.Fault{
			Kind:     core.FaultUpstream,
			Message:  "Token estimate failed",
			ImageURL: imageURL,
			Err:      err,
		}
	}
	log.With(
		slog.Int("text_tokens", budget.TextTokens),
		slog.Int("image_tokens", budget.ImageTokenEstimate),
		slog.Int("total", budget.Total),
	).Debug("token budget")
	if budget.Exceeded() {
		return nil, &core.Fault{
			Kind:     core.FaultBudgetExceeded,
			Message:  budgetMessage(budget),
			ImageURL: imageURL,
		}
	}

	reply, err := s.relay.Complete(ctx, content, imageURL)
	if err != nil {
		return nil, err
	}

	if err := s.store.Append(ctx, ownerId, storage.RoleAssistant, reply); err != nil {
		return nil, &core.Fault{
			Kind:     core.FaultStorage,
			Message:  "Failed to save reply",
			ImageURL: imageURL,
			Err:      err,
		}
	}

	log.With(sl.Dur(time.Since(start))).Info("prompt answered")
	return &core.Reply{Text: reply, ImageURL: imageURL}, nil
}

// processImage runs the transform, publish and verify stages and returns
// the public URL of the image.
func (s *Service) processImage(ctx context.Context, log *slog.Logger, upload *core.Upload) (string, *core.Fault) {
	data, err := s.transformer.Transform(upload.Path)
	if err != nil {
		return "", &core.Fault{
			Kind:    core.FaultImageProcessing,
			Message: "Image processing failed",
			Err:     err,
		}
	}

	url, err := s.publisher.Publish(ctx, data)
	if err != nil {
		return "", &core.Fault{
			Kind:    core.FaultPublish,
			Message: "Image upload failed",
			Err:     err,
		}
	}

	if err := s.verifier.Verify(ctx, url); err != nil {
		return "", &core.Fault{
			Kind:     core.FaultImageUnreachable,
			Message:  "Image URL inaccessible",
			Detail:   "The image URL (" + url + ") cannot be accessed by the AI service. Use a publicly hosted image.",
			ImageURL: url,
			Err:      err,
		}
	}

	log.With(slog.String("url", url)).Debug("image verified")
	return url, nil
}

func budgetMessage(budget tokens.Budget) string {
	return fmt.Sprintf("Prompt too large: %d tokens, limit is %d", budget.Total, budget.Limit)
}

func (s *Service) History(ctx context.Context, ownerId string) ([]storage.Turn, error) {
	return s.store.Turns(ctx, ownerId)
}

func (s *Service) Close() error {
	return s.store.Close()
}
