package authflow

import "context"

// Popup sizing for the Google consent screen.
const (
	PopupWidth  = 500
	PopupHeight = 600
)

// PopupOptions describes the window geometry requested from an Opener.
type PopupOptions struct {
	Width  int
	Height int
}

// Popup is a handle to an open sign-in window.
type Popup interface {
	// Closed reports whether the window is gone, whoever closed it.
	Closed() bool
	// Close closes the window. Closing an already closed window is a no-op.
	Close() error
}

// Opener opens url in a new popup window.
type Opener interface {
	Open(ctx context.Context, url string, opts PopupOptions) (Popup, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, url string, opts PopupOptions) (Popup, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, url string, opts PopupOptions) (Popup, error) {
	return f(ctx, url, opts)
}
