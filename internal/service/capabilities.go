package service

import "context"

// Clipboard receives share links.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Downloader hands one file to the user (browser download, file on disk,
// archive entry).
type Downloader interface {
	Download(ctx context.Context, name, contentType string, data []byte) error
}

// Confirmer asks the user to confirm a destructive operation.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a plain function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Always confirms without asking.
var Always Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })
