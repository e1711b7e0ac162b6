package status

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"github.com/akrylov/wsproxy/internal/socket"
)

// sendNotOpenMessage is the usage-error diagnostic for rejected sends.
const sendNotOpenMessage = "messages can only be sent while the connection is open"

var errMissingHost = errors.New("url host is required")

// Socket is the proxied connection surface the adapter drives. It is
// satisfied by *proxy.Proxy.
type Socket interface {
	Open(url string)
	Close(code int, reason string)
	SendText(payload string) int64
	SendBinary(payload []byte) int64
	ErrorString() string
	Events() <-chan socket.Event
}

// Adapter folds proxy events into the five-status state machine and exposes
// the active toggle that drives open and close.
type Adapter struct {
	sock   Socket
	logger *slog.Logger

	// Observer callbacks, fixed after New.
	onStatus func(Status)
	onError  func(string)
	onActive func(bool)
	onURL    func(string)
	onText   func(string)
	onBinary func([]byte)

	mu      sync.RWMutex
	status  Status
	active  bool
	url     string
	errText string

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// OnStatusChanged registers a status change observer.
func OnStatusChanged(fn func(Status)) Option {
	return func(a *Adapter) { a.onStatus = fn }
}

// OnErrorStringChanged registers an error string observer.
func OnErrorStringChanged(fn func(string)) Option {
	return func(a *Adapter) { a.onError = fn }
}

// OnActiveChanged registers an active toggle observer.
func OnActiveChanged(fn func(bool)) Option {
	return func(a *Adapter) { a.onActive = fn }
}

// OnURLChanged registers a URL change observer.
func OnURLChanged(fn func(string)) Option {
	return func(a *Adapter) { a.onURL = fn }
}

// OnTextMessage registers a received text message observer.
func OnTextMessage(fn func(string)) Option {
	return func(a *Adapter) { a.onText = fn }
}

// OnBinaryMessage registers a received binary message observer.
func OnBinaryMessage(fn func([]byte)) Option {
	return func(a *Adapter) { a.onBinary = fn }
}

// New creates an adapter over sock. Initial status is Closed with active
// false; call Start to begin consuming events.
func New(sock Socket, opts ...Option) *Adapter {
	a := &Adapter{
		sock:   sock,
		logger: slog.Default(),
		status: Closed,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start begins consuming events from the socket.
func (a *Adapter) Start(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(1)
	go a.eventLoop()

	a.logger.Debug("status adapter started")
	return nil
}

// Stop shuts down the event loop, waiting up to ctx's deadline.
func (a *Adapter) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Debug("status adapter stopped")
	case <-ctx.Done():
		a.logger.Warn("status adapter stop timed out")
	}
	return nil
}

// Status returns the current coarse status.
func (a *Adapter) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Active reports whether the caller last asked for an open connection.
func (a *Adapter) Active() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

// URL returns the configured target URL.
func (a *Adapter) URL() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.url
}

// ErrorString describes the last error. Empty when no error occurred or the
// status has since left Error.
func (a *Adapter) ErrorString() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.errText
}

// SetActive opens the connection when toggled on (with a valid URL) and
// closes it when toggled off.
func (a *Adapter) SetActive(active bool) {
	a.mu.Lock()
	if a.active == active {
		a.mu.Unlock()
		return
	}
	a.active = active
	a.mu.Unlock()

	if a.onActive != nil {
		a.onActive(active)
	}
	if active {
		a.open()
	} else {
		a.close()
	}
}

// SetURL changes the target URL. A connection that is currently Open is
// closed first, then reopened against the new URL if active.
func (a *Adapter) SetURL(rawURL string) {
	a.mu.Lock()
	if a.url == rawURL {
		a.mu.Unlock()
		return
	}
	wasOpen := a.status == Open
	a.url = rawURL
	a.mu.Unlock()

	if wasOpen {
		a.close()
	}
	if a.onURL != nil {
		a.onURL(rawURL)
	}
	a.open()
}

// SendTextMessage forwards a text message. While the status is not Open the
// send is rejected with 0 and the status becomes Error.
func (a *Adapter) SendTextMessage(message string) int64 {
	if !a.sendAllowed() {
		return 0
	}
	return a.sock.SendText(message)
}

// SendBinaryMessage forwards a binary message. While the status is not Open
// the send is rejected with 0 and the status becomes Error.
func (a *Adapter) SendBinaryMessage(message []byte) int64 {
	if !a.sendAllowed() {
		return 0
	}
	return a.sock.SendBinary(message)
}

func (a *Adapter) sendAllowed() bool {
	a.mu.RLock()
	open := a.status == Open
	a.mu.RUnlock()
	if open {
		return true
	}
	a.setErrorString(sendNotOpenMessage)
	a.setStatus(Error)
	return false
}

func (a *Adapter) eventLoop() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case ev, ok := <-a.sock.Events():
			if !ok {
				return
			}
			a.handleEvent(ev)
		}
	}
}

func (a *Adapter) handleEvent(ev socket.Event) {
	switch ev.Kind {
	case socket.EventStateChanged:
		a.setStatus(statusForState(ev.State))
	case socket.EventError:
		text := a.sock.ErrorString()
		if text == "" && ev.Err != nil {
			text = ev.Err.Error()
		}
		a.setErrorString(text)
		a.setStatus(Error)
	case socket.EventTextMessage:
		if a.onText != nil {
			a.onText(ev.Text)
		}
	case socket.EventBinaryMessage:
		if a.onBinary != nil {
			a.onBinary(ev.Data)
		}
	case socket.EventConnected, socket.EventDisconnected:
		// Covered by the accompanying StateChanged events.
	}
}

func (a *Adapter) open() {
	a.mu.RLock()
	active, rawURL := a.active, a.url
	a.mu.RUnlock()
	if !active {
		return
	}

	target, err := normalizeURL(rawURL)
	if err != nil {
		a.logger.Debug("not opening, url invalid", "url", rawURL, "error", err)
		return
	}
	a.sock.Open(target)
}

func (a *Adapter) close() {
	a.sock.Close(socket.CloseNormalClosure, "")
}

// setStatus applies a status transition. Leaving Error clears the error
// string.
func (a *Adapter) setStatus(s Status) {
	a.mu.Lock()
	if a.status == s {
		a.mu.Unlock()
		return
	}
	a.status = s
	clearedError := false
	if s != Error && a.errText != "" {
		a.errText = ""
		clearedError = true
	}
	a.mu.Unlock()

	if clearedError && a.onError != nil {
		a.onError("")
	}
	if a.onStatus != nil {
		a.onStatus(s)
	}
}

func (a *Adapter) setErrorString(text string) {
	a.mu.Lock()
	if a.errText == text {
		a.mu.Unlock()
		return
	}
	a.errText = text
	a.mu.Unlock()

	if a.onError != nil {
		a.onError(text)
	}
}

// normalizeURL validates a target URL. A missing scheme defaults to ws.
func normalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errMissingHost
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u, err = url.Parse("ws://" + rawURL)
		if err != nil {
			return "", err
		}
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", socket.ErrInvalidScheme
	}
	if u.Host == "" {
		return "", errMissingHost
	}
	return u.String(), nil
}
