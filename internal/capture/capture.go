// Package capture defines the capture backend contract and the shared
// packet decoding used by the pcap based backends.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"netradar/internal/models"
)

var (
	ErrPermission         = errors.New("insufficient privileges to capture")
	ErrInterfaceNotFound  = errors.New("capture interface not found")
	ErrInvalidFilter      = errors.New("invalid capture filter")
	ErrBackendUnavailable = errors.New("capture backend unavailable")
	ErrAlreadyStarted     = errors.New("capture already started")
)

// Sink receives decoded packets. Enqueue must not block.
type Sink interface {
	Enqueue(models.PacketEvent) bool
}

// Source is a capture backend. Start returns once capture is running (or has
// failed to start); packets are then pushed to the sink from a background
// goroutine until Stop is called, ctx is cancelled, or the input ends.
type Source interface {
	Name() string
	Start(ctx context.Context, sink Sink) error
	Stop() error
	Done() <-chan struct{}
}

// Worker runs a backend's read loop and gives it a Stop/Done lifecycle.
// The zero value is ready to use.
type Worker struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// Go starts loop on its own goroutine. loop must return when its ctx is done.
func (w *Worker) Go(ctx context.Context, loop func(ctx context.Context)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.ensureDone()
	done := w.done
	go func() {
		defer close(done)
		loop(ctx)
	}()
	return nil
}

// Stop cancels the loop and waits for it to return. It is safe to call more
// than once and before Go.
func (w *Worker) Stop() error {
	w.mu.Lock()
	cancel, done, started := w.cancel, w.done, w.started
	w.mu.Unlock()
	if !started {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Done is closed when the loop has returned.
func (w *Worker) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureDone()
	return w.done
}

func (w *Worker) ensureDone() {
	if w.done == nil {
		w.done = make(chan struct{})
	}
}

// OpenError maps a backend open failure onto one of the package sentinels.
func OpenError(device string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"),
		strings.Contains(msg, "not permitted"),
		strings.Contains(msg, "access is denied"):
		return fmt.Errorf("%w: %s: %v", ErrPermission, device, err)
	case strings.Contains(msg, "no such device"),
		strings.Contains(msg, "doesn't exist"),
		strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "no such file"),
		strings.Contains(msg, "cannot find the device"):
		return fmt.Errorf("%w: %s: %v", ErrInterfaceNotFound, device, err)
	default:
		return fmt.Errorf("open %s: %w", device, err)
	}
}
