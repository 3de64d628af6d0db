package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

// EventStream is the Valkey stream load events are published to when a
// Valkey address is configured.
const EventStream = "medgraph:load_events"

// Event kinds published to the stream.
const (
	EventFileStarted   = "file_started"
	EventFileProgress  = "file_progress"
	EventFileCompleted = "file_completed"
	EventFileFailed    = "file_failed"
	EventRunCompleted  = "run_completed"
)

// Event is one load lifecycle notification.
type Event struct {
	RunID    string    `json:"run_id"`
	Kind     string    `json:"kind,omitempty"`
	File     string    `json:"file,omitempty"`
	Event    string    `json:"event"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Error    string    `json:"error,omitempty"`
	Time     time.Time `json:"time"`
}

// Publisher emits load events to a Valkey stream so external dashboards can
// follow a run. A nil Publisher or one without a client is a no-op, keeping
// the event stream strictly optional.
type Publisher struct {
	client valkey.Client
	logger *slog.Logger
}

// NewPublisher wraps a Valkey client; client may be nil when events are
// disabled.
func NewPublisher(client valkey.Client, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Publish sends one event, best effort. Publishing failures are logged and
// never affect the load.
func (p *Publisher) Publish(ctx context.Context, evt Event) {
	if p == nil || p.client == nil {
		return
	}
	evt.Time = time.Now().UTC()

	data, err := json.Marshal(evt)
	if err != nil {
		p.logger.Warn("marshal load event", slog.String("error", err.Error()))
		return
	}

	resp := p.client.Do(ctx, p.client.B().Xadd().
		Key(EventStream).Id("*").
		FieldValue().FieldValue("data", string(data)).
		Build())
	if err := resp.Error(); err != nil {
		p.logger.Warn("publish load event", slog.String("error", fmt.Sprintf("xadd: %v", err)))
	}
}
