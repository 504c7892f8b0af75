package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/vigil-core/pkg/logger"
)

func TestWebhookNotify(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, 2*time.Second)
	err := wh.Notify(context.Background(), Payload{
		ID:       "a1",
		Type:     "alert",
		Title:    "High request latency",
		Severity: "medium",
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, "High request latency", got.Title)
}

func TestWebhookNotifyEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, 2*time.Second)
	err := wh.Notify(context.Background(), Payload{ID: "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

type stubSink struct {
	calls int
	err   error
}

func (s *stubSink) Notify(ctx context.Context, p Payload) error {
	s.calls++
	return s.err
}

func TestMultiNotifyPartialFailure(t *testing.T) {
	good := &stubSink{}
	bad := &stubSink{err: errors.New("smtp down")}
	m := NewMulti(logger.NewNop(), map[string]Notifier{"webhook": good, "email": bad})

	err := m.Notify(context.Background(), Payload{ID: "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1/2")
	assert.Equal(t, 1, good.calls)
	assert.Equal(t, 1, bad.calls)

	bad.err = nil
	assert.NoError(t, m.Notify(context.Background(), Payload{ID: "a2"}))
}
