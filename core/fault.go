package core

import "net/http"

type FaultKind int

const (
	FaultEmptyContent FaultKind = iota
	FaultContentTooLong
	FaultFileTooLarge
	FaultUnsupportedMime
	FaultImageProcessing
	FaultPublish
	FaultImageUnreachable
	FaultBudgetExceeded
	FaultEmptyReply
	FaultQuotaExceeded
	FaultImageExtraction
	FaultUpstream
	FaultStorage
)

// Fault is a terminal pipeline failure. Every stage reports one instead of a
// bare error so the transport can pick a status and name the failing concern.
type Fault struct {
	Kind     FaultKind
	Message  string
	Detail   string
	ImageURL string // the published URL involved in the failure, if any
	Err      error
}

func (f *Fault) Error() string {
	if f.Detail != "" {
		return f.Message + ": " + f.Detail
	}
	if f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Status maps the fault to an HTTP status: 400 when the caller can correct
// the request, 500 otherwise.
func (f *Fault) Status() int {
	switch f.Kind {
	case FaultEmptyContent, FaultContentTooLong, FaultFileTooLarge, FaultUnsupportedMime,
		FaultImageUnreachable, FaultBudgetExceeded, FaultQuotaExceeded, FaultImageExtraction:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Stage names the failing concern for logs.
func (f *Fault) Stage() string {
	switch f.Kind {
	case FaultEmptyContent, FaultContentTooLong, FaultFileTooLarge, FaultUnsupportedMime:
		return "validate"
	case FaultImageProcessing:
		return "transform"
	case FaultPublish:
		return "publish"
	case FaultImageUnreachable:
		return "verify"
	case FaultBudgetExceeded:
		return "budget"
	case FaultEmptyReply, FaultQuotaExceeded, FaultImageExtraction, FaultUpstream:
		return "relay"
	case FaultStorage:
		return "persist"
	default:
		return "unknown"
	}
}
