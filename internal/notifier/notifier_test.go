package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OptionSentinel/internal/logger"
)

func newTestTelegram(t *testing.T, handler http.HandlerFunc) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", "", logger.Nop())
	n.APIBase = srv.URL
	return n
}

func TestTelegramNotifier_Send(t *testing.T) {
	var gotPath string
	var payload map[string]string
	n := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, n.Send(context.Background(), "hello"))

	assert.Equal(t, "/botTOKEN/sendMessage", gotPath)
	assert.Equal(t, "42", payload["chat_id"])
	assert.Equal(t, "hello", payload["text"])
	assert.Equal(t, "HTML", payload["parse_mode"])
}

func TestTelegramNotifier_SendError(t *testing.T) {
	n := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	})

	err := n.Send(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

type flakyNotifier struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyNotifier) Name() string { return "flaky" }

func (f *flakyNotifier) Send(context.Context, string) error {
	if f.calls.Add(1) <= f.failures {
		return errors.New("unavailable")
	}
	return nil
}

func TestSendWithRetry(t *testing.T) {
	f := &flakyNotifier{failures: 2}

	err := sendWithRetry(context.Background(), f, "x", 3, time.Millisecond, logger.Nop())

	require.NoError(t, err)
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	f := &flakyNotifier{failures: 10}

	err := sendWithRetry(context.Background(), f, "x", 2, time.Millisecond, logger.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestSendWithRetry_ContextCancelled(t *testing.T) {
	f := &flakyNotifier{failures: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sendWithRetry(ctx, f, "x", 5, time.Hour, logger.Nop())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartPolling_DispatchesCommands(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var polls atomic.Int32
	replies := make(chan string, 1)
	n := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if polls.Add(1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /status NIFTY "}},{"update_id":8}]}`))
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			<-r.Context().Done()
		case "/botTOKEN/sendMessage":
			var p map[string]string
			json.NewDecoder(r.Body).Decode(&p)
			replies <- p["text"]
		}
	})

	var gotCommand atomic.Value
	go n.poll(ctx, func(cmd string) string {
		gotCommand.Store(cmd)
		return "pong"
	}, 1, time.Millisecond)

	select {
	case reply := <-replies:
		assert.Equal(t, "pong", reply)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	assert.Equal(t, "/status NIFTY", gotCommand.Load())
}

func TestNoopNotifier(t *testing.T) {
	var n Notifier = NoopNotifier{}
	assert.NoError(t, n.Send(context.Background(), "x"))
	assert.Equal(t, "noop", n.Name())
}
