package publisher

import (
	"context"
	"errors"
	"log"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/weirdname404/async-arch-course/libs/events"
)

type stubWriter struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *stubWriter) Close() error {
	w.closed = true
	return nil
}

func newTestPublisher(w *stubWriter) *Publisher {
	return &Publisher{writer: w, logger: log.New(log.Writer(), "[test] ", 0)}
}

func TestPublishCUDWrapsPayloadInEnvelope(t *testing.T) {
	writer := &stubWriter{}
	p := newTestPublisher(writer)

	err := p.PublishCUD(context.Background(), events.UserCreated, map[string]any{
		"pub_id":   "u-1",
		"username": "popug",
	})
	require.NoError(t, err)
	require.Len(t, writer.written, 1)

	msg := writer.written[0]
	require.Equal(t, events.KeyCUD, string(msg.Key))

	env, err := events.Decode(msg.Value)
	require.NoError(t, err)
	require.Equal(t, events.UserCreated, env.Name)
	require.Equal(t, 1, env.Version)
	require.NotEmpty(t, env.ID)
	require.NotEmpty(t, env.Time)
	require.Equal(t, "u-1", env.Data["pub_id"])
}

func TestPublishBIZUsesBusinessKey(t *testing.T) {
	writer := &stubWriter{}
	p := newTestPublisher(writer)

	err := p.PublishBIZ(context.Background(), events.UserRoleChanged, map[string]any{
		"pub_id": "u-1",
		"role":   "manager",
	})
	require.NoError(t, err)
	require.Len(t, writer.written, 1)
	require.Equal(t, events.KeyBIZ, string(writer.written[0].Key))
}

func TestPublishEnvelopeIDsAreUnique(t *testing.T) {
	writer := &stubWriter{}
	p := newTestPublisher(writer)

	require.NoError(t, p.PublishCUD(context.Background(), events.UserDeleted, map[string]any{"pub_id": "u-1"}))
	require.NoError(t, p.PublishCUD(context.Background(), events.UserDeleted, map[string]any{"pub_id": "u-1"}))

	first, err := events.Decode(writer.written[0].Value)
	require.NoError(t, err)
	second, err := events.Decode(writer.written[1].Value)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
}

func TestPublishPropagatesBrokerError(t *testing.T) {
	writer := &stubWriter{err: errors.New("broker unreachable")}
	p := newTestPublisher(writer)

	err := p.PublishCUD(context.Background(), events.UserCreated, nil)
	require.Error(t, err)
}

func TestCloseReleasesWriter(t *testing.T) {
	writer := &stubWriter{}
	p := newTestPublisher(writer)
	require.NoError(t, p.Close())
	require.True(t, writer.closed)
}
