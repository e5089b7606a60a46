package ports

import "context"

// EmailSender dispatches transactional mail. The template and sender address
// are implementation configuration.
type EmailSender interface {
	SendOTPEmail(ctx context.Context, recipientEmail, code string) error
}

// ObjectStorage removes stored media objects during account deletion.
type ObjectStorage interface {
	DeleteObject(ctx context.Context, path string) error
}

// TaskRunner executes detached background work (superseded-token
// invalidation, orphaned guest cleanup). Failures are logged by the runner,
// never surfaced to the submitting request.
type TaskRunner interface {
	Submit(name string, fn func(ctx context.Context) error)
}
