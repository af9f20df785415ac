// Package popup opens the Google consent screen in a standalone browser
// window. The window counts as closed once the browser process exits.
package popup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/dhawalhost/googlesignin/internal/authflow"
	"go.uber.org/zap"
)

// ArgsFunc builds the browser command line for url.
type ArgsFunc func(url, profileDir string, opts authflow.PopupOptions) []string

// ChromiumArgs opens url as a chromeless app window with its own profile,
// so the process lives exactly as long as the window.
func ChromiumArgs(url, profileDir string, opts authflow.PopupOptions) []string {
	return []string{
		"--app=" + url,
		fmt.Sprintf("--window-size=%d,%d", opts.Width, opts.Height),
		"--user-data-dir=" + profileDir,
		"--no-first-run",
		"--no-default-browser-check",
	}
}

// Browser is an authflow.Opener backed by a browser executable.
type Browser struct {
	Command string
	Args    ArgsFunc
	Logger  *zap.Logger
}

// NewBrowser returns a Browser running command with Chromium flags.
func NewBrowser(command string, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{Command: command, Args: ChromiumArgs, Logger: logger}
}

// Open starts the browser. The process is not tied to ctx: the login
// attempt that owns the window closes it explicitly.
func (b *Browser) Open(ctx context.Context, url string, opts authflow.PopupOptions) (authflow.Popup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profileDir, err := os.MkdirTemp("", "googlesignin-popup-")
	if err != nil {
		return nil, fmt.Errorf("create popup profile: %w", err)
	}

	args := b.Args
	if args == nil {
		args = ChromiumArgs
	}
	cmd := exec.Command(b.Command, args(url, profileDir, opts)...)
	startGroup(cmd)
	if err := cmd.Start(); err != nil {
		_ = os.RemoveAll(profileDir)
		return nil, fmt.Errorf("start %s: %w", b.Command, err)
	}

	w := &window{cmd: cmd, profileDir: profileDir, done: make(chan struct{}), logger: b.Logger}
	go w.wait()

	b.Logger.Debug("Popup window started", zap.Int("pid", cmd.Process.Pid))
	return w, nil
}

type window struct {
	cmd        *exec.Cmd
	profileDir string
	done       chan struct{}
	logger     *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

func (w *window) wait() {
	err := w.cmd.Wait()
	if err != nil {
		w.logger.Debug("Popup process exited", zap.Error(err))
	}
	if err := os.RemoveAll(w.profileDir); err != nil {
		w.logger.Warn("Failed to remove popup profile", zap.String("dir", w.profileDir), zap.Error(err))
	}
	close(w.done)
}

func (w *window) Closed() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Close kills the browser's whole process group, including anything a
// launcher forked, and waits for the browser process to be reaped.
func (w *window) Close() error {
	w.closeOnce.Do(func() {
		if err := killGroup(w.cmd); err != nil {
			w.closeErr = err
			return
		}
		<-w.done
	})
	return w.closeErr
}
