package prompt

import (
	"strings"
	"unicode/utf8"

	"stockbuddy/core"
)

const (
	maxContentChars = 1000
	maxFileBytes    = 15 << 20 // 15 MiB
)

// validateContent and validateUpload are pure admission checks; persistence
// and other side effects happen only after both pass.

func validateContent(content string, hasFile bool) *core.Fault {
	if strings.TrimSpace(content) == "" && !hasFile {
		return &core.Fault{
			Kind:    core.FaultEmptyContent,
			Message: "Prompt content is required",
		}
	}
	if utf8.RuneCountInString(content) > maxContentChars {
		return &core.Fault{
			Kind:    core.FaultContentTooLong,
			Message: "Text prompt too long, max 1000 characters",
		}
	}
	return nil
}

func validateUpload(upload *core.Upload) *core.Fault {
	if upload == nil {
		return nil
	}
	if upload.Size > maxFileBytes {
		return &core.Fault{
			Kind:    core.FaultFileTooLarge,
			Message: "Image too large, max 15 MB",
		}
	}
	if !strings.HasPrefix(upload.MimeType, "image/") {
		return &core.Fault{
			Kind:    core.FaultUnsupportedMime,
			Message: "Only image files are allowed",
		}
	}
	return nil
}
