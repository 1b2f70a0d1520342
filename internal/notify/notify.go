package notify

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/widgetkit/internal/httpclient"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/logging"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/monitoring"
)

// Notification types understood by the notification widget.
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeDanger  = "danger"
)

// Content is the first argument of the notification capability.
type Content struct {
	Message string `json:"message"`
}

// Settings is the second argument of the notification capability.
type Settings struct {
	Type string `json:"type"`
}

// Display shows a transient message. Rendering is up to the implementation.
type Display interface {
	Notify(content Content, settings Settings)
}

// Notification is the {message, type} pair an action endpoint answers with.
type Notification struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Failed is shown whenever the action request itself fails.
var Failed = Notification{Message: "Error", Type: TypeDanger}

// CallOptions configures one action request.
type CallOptions struct {
	Method  string // POST when empty
	Payload any
}

// Notifier issues action requests and reports their outcome through a Display.
type Notifier struct {
	client  *httpclient.Client
	display Display
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a Notifier.
func New(client *httpclient.Client, display Display, logger *logging.Logger, metrics *monitoring.Metrics) *Notifier {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Notifier{
		client:  client,
		display: display,
		logger:  logger.Named("notify"),
		metrics: metrics,
	}
}

// Call sends one request to url and displays the {message, type} it answers
// with, message text unchanged. Any failure, including a non-2xx status or a
// body that is not JSON, displays Failed instead. The displayed notification
// is returned.
func (n *Notifier) Call(ctx context.Context, url string, opts CallOptions) Notification {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodPost
	}

	note := Failed
	resp, err := n.client.Do(ctx, method, url, opts.Payload)
	if err == nil {
		var answer Notification
		if err = httpclient.DecodeJSON(resp.Body, &answer); err == nil {
			note = answer
		}
	}
	if err != nil {
		n.logger.Warn("action request failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.Error(err),
		)
	}

	n.display.Notify(Content{Message: note.Message}, Settings{Type: note.Type})
	n.metrics.RecordNotification(note.Type)
	return note
}

// Recorder is a Display that keeps every notification in memory.
type Recorder struct {
	mu    sync.Mutex
	shown []Notification
}

func (r *Recorder) Notify(content Content, settings Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, Notification{Message: content.Message, Type: settings.Type})
}

// Shown returns a copy of the notifications displayed so far.
func (r *Recorder) Shown() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification{}, r.shown...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.shown) == 0 {
		return Notification{}, false
	}
	return r.shown[len(r.shown)-1], true
}

// LogDisplay writes notifications to a logger.
type LogDisplay struct {
	Logger *logging.Logger
}

func (d LogDisplay) Notify(content Content, settings Settings) {
	d.Logger.Info("notification", zap.String("type", settings.Type), zap.String("message", content.Message))
}

// HTMLDisplay sanitizes messages for a Display that renders them as markup.
// Plain text comes out HTML-escaped; tags outside the UGC policy are removed.
type HTMLDisplay struct {
	Next   Display
	Policy *bluemonday.Policy // bluemonday.UGCPolicy when nil
}

func (d HTMLDisplay) Notify(content Content, settings Settings) {
	policy := d.Policy
	if policy == nil {
		policy = bluemonday.UGCPolicy()
	}
	content.Message = policy.Sanitize(content.Message)
	d.Next.Notify(content, settings)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(content Content, settings Settings)

func (f DisplayFunc) Notify(content Content, settings Settings) {
	f(content, settings)
}
