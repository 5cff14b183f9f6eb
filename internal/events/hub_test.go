package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoped struct{ App string }

func (s scoped) EventAppID() string { return s.App }

func TestHub_SubscribeFilter(t *testing.T) {
	h := NewHub()
	all, unsubAll := h.Subscribe("")
	defer unsubAll()
	app1, unsubApp1 := h.Subscribe("app1")

	h.Emit(context.Background(), "record:changed", scoped{App: "app2"})

	msg := <-all
	assert.Equal(t, "record:changed", msg.Event)
	select {
	case <-app1:
		t.Fatal("app1 subscriber received another app's event")
	default:
	}

	h.Emit(context.Background(), "import:completed", map[string]string{"jobId": "j1"})
	assert.Equal(t, "import:completed", (<-app1).Event)

	unsubApp1()
	unsubApp1()
	assert.Equal(t, 1, h.Subscribers())
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_, unsub := h.Subscribe("")
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			h.Emit(context.Background(), "x", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full subscriber")
	}
}

func TestHub_ServeHTTP(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?app=app1", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	h.Emit(ctx, "collection:changed", scoped{App: "app1"})

	var msg Message
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "collection:changed", msg.Event)
	assert.Equal(t, map[string]any{"App": "app1"}, msg.Data)

	conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return h.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_ServeHTTPRequiresApp(t *testing.T) {
	h := NewHub()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, h.Subscribers())
}

func TestHub_ServeHTTPRejectsForeignOrigin(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?app=app1", &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": {"http://elsewhere.example"}},
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
