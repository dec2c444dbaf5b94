package notify

import (
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postforge/internal/build"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/incremental"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
	closed  bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.subject, c.data = subject, data
	return c.err
}

func (c *fakeConn) Close() { c.closed = true }

func result() *build.Result {
	return &build.Result{
		PassID:     "p1",
		Mode:       build.ModeIncremental,
		Status:     build.StatusSuccess,
		Changes:    incremental.ChangeSet{Modified: []string{"dev/b.md"}, Added: []string{"dev/a.md"}, Removed: []string{"dev/c.md"}},
		Units:      build.Counts{Built: 2, Deleted: 1},
		Generation: 4,
		Duration:   250 * time.Millisecond,
		FinishedAt: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublish(t *testing.T) {
	conn := &fakeConn{}
	p := New(conn, "postforge.pass")

	require.NoError(t, p.Publish(result()))

	assert.Equal(t, "postforge.pass", conn.subject)
	var msg Message
	require.NoError(t, json.Unmarshal(conn.data, &msg))
	assert.Equal(t, "p1", msg.PassID)
	assert.Equal(t, uint64(4), msg.Generation)
	assert.Equal(t, []string{"dev/a.md", "dev/b.md"}, msg.Changed)
	assert.Equal(t, []string{"dev/c.md"}, msg.Removed)
	assert.Equal(t, int64(250), msg.DurationMS)
	assert.Equal(t, 1, msg.Deleted)

	p.Close()
	assert.True(t, conn.closed)
}

func TestPublish_ErrorIsClassified(t *testing.T) {
	p := New(&fakeConn{err: stderrors.New("no responders")}, "s")

	err := p.Publish(result())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotify))

	assert.NotPanics(t, func() { p.PassCompleted(t.Context(), result()) })
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "s")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotify))
}
