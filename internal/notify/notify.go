// Package notify publishes pass completion messages over NATS so other
// tools (deployers, cache purgers) can react to fresh output.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/postforge/internal/build"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/logfields"
)

// Message is the JSON payload published after every committed pass.
type Message struct {
	PassID     string    `json:"pass_id"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	Full       bool      `json:"full"`
	Generation uint64    `json:"generation"`
	Built      int       `json:"built"`
	Failed     int       `json:"failed"`
	Deleted    int       `json:"deleted"`
	Changed    []string  `json:"changed,omitempty"`
	Removed    []string  `json:"removed,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewMessage builds the payload for res.
func NewMessage(res *build.Result) Message {
	return Message{
		PassID:     res.PassID,
		Mode:       string(res.Mode),
		Status:     string(res.Status),
		Full:       res.Full,
		Generation: res.Generation,
		Built:      res.Built(),
		Failed:     res.Failed(),
		Deleted:    res.Deleted(),
		Changed:    res.Changes.Changed(),
		Removed:    res.Changes.Removed,
		DurationMS: res.Duration.Milliseconds(),
		FinishedAt: res.FinishedAt.UTC(),
	}
}

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// Publisher sends a Message per completed pass.
type Publisher struct {
	conn    Conn
	subject string
}

// Connect dials the NATS server at url.
func Connect(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("postforge"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.NotifyError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS notifications enabled", logfields.Addr(url), logfields.Subject(subject))
	return New(conn, subject), nil
}

// New wraps an existing connection.
func New(conn Conn, subject string) *Publisher {
	return &Publisher{conn: conn, subject: subject}
}

// Publish sends the message for res.
func (p *Publisher) Publish(res *build.Result) error {
	data, err := json.Marshal(NewMessage(res))
	if err != nil {
		return errors.InternalError("failed to marshal pass message").WithCause(err).Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.NotifyError("failed to publish pass message").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}
	return nil
}

// PassCompleted implements build.Hook. Publish failures are logged and
// never affect the pass.
func (p *Publisher) PassCompleted(_ context.Context, res *build.Result) {
	if err := p.Publish(res); err != nil {
		slog.Warn("Pass notification failed", logfields.PassID(res.PassID), logfields.Error(err))
		return
	}
	slog.Debug("Published pass notification", logfields.PassID(res.PassID), logfields.Subject(p.subject))
}

// Close closes the connection.
func (p *Publisher) Close() {
	p.conn.Close()
}

var _ build.Hook = (*Publisher)(nil)
