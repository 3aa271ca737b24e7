package service

import (
	"context"
	"io"
)

// FileUploader abstracts asset storage for resumes and proctoring captures.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}
