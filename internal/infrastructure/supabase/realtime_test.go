package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

const testTopic = "realtime:public:enrolements"

func TestParseRealtimeMessage_PostgresChanges(t *testing.T) {
	insert := `{"topic":"realtime:public:enrolements","event":"postgres_changes","ref":null,
		"payload":{"data":{"type":"INSERT","table":"enrolements","schema":"public",
		"record":{"id":"uuid-1","name":"Jean","meterType":"prepaid","meterNumber":"011234567890",
		"created_at":"2025-01-01T10:00:00+00:00"},"old_record":null}}}`

	ev, ok, err := parseRealtimeMessage([]byte(insert), testTopic)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, repository.ChangeInsert, ev.Kind)
	assert.Equal(t, "uuid-1", ev.ID)
	require.NotNil(t, ev.Record)
	assert.Equal(t, "Jean", ev.Record.Name)

	del := `{"topic":"realtime:public:enrolements","event":"postgres_changes",
		"payload":{"data":{"type":"DELETE","old_record":{"id":"uuid-1"}}}}`
	ev, ok, err = parseRealtimeMessage([]byte(del), testTopic)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, repository.ChangeDelete, ev.Kind)
	assert.Equal(t, "uuid-1", ev.ID)
}

func TestParseRealtimeMessage_FormatoAnterior(t *testing.T) {
	msg := `{"topic":"realtime:public:enrolements","event":"DELETE","payload":{"old_record":{"id":"x"}}}`

	ev, ok, err := parseRealtimeMessage([]byte(msg), testTopic)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, repository.ChangeDelete, ev.Kind)
	assert.Equal(t, "x", ev.ID)
}

func TestParseRealtimeMessage_Control(t *testing.T) {
	ignored := []string{
		`{"topic":"phoenix","event":"phx_reply","payload":{"status":"ok"}}`,
		`{"topic":"realtime:public:enrolements","event":"phx_reply","payload":{"status":"ok","response":{}}}`,
		`{"topic":"realtime:public:enrolements","event":"presence_state","payload":{}}`,
		`{"topic":"realtime:public:otra","event":"postgres_changes","payload":{"data":{"type":"INSERT","record":{"id":"1"}}}}`,
	}
	for _, raw := range ignored {
		_, ok, err := parseRealtimeMessage([]byte(raw), testTopic)
		assert.NoError(t, err, raw)
		assert.False(t, ok, raw)
	}

	fatal := []string{
		`{"topic":"realtime:public:enrolements","event":"phx_reply","payload":{"status":"error","response":{"reason":"denied"}}}`,
		`{"topic":"realtime:public:enrolements","event":"phx_close","payload":{}}`,
	}
	for _, raw := range fatal {
		_, _, err := parseRealtimeMessage([]byte(raw), testTopic)
		assert.Error(t, err, raw)
	}
}

func TestRealtimeURL(t *testing.T) {
	assert.Equal(t, "wss://demo.supabase.co/realtime/v1/websocket?apikey=k&vsn=1.0.0",
		realtimeURL("https://demo.supabase.co/", "k"))
	assert.Equal(t, "ws://127.0.0.1:54321/realtime/v1/websocket?apikey=k&vsn=1.0.0",
		realtimeURL("http://127.0.0.1:54321", "k"))
}

func TestRealtimeSource_ListenUneseYEmite(t *testing.T) {
	upgrader := websocket.Upgrader{}
	joined := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realtime/v1/websocket", r.URL.Path)
		assert.Equal(t, "anon", r.URL.Query().Get("apikey"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var join map[string]any
		if err := conn.ReadJSON(&join); err != nil {
			return
		}
		joined <- join
		_ = conn.WriteMessage(websocket.TextMessage, []byte(
			`{"topic":"realtime:public:enrolements","event":"phx_reply","ref":"1","payload":{"status":"ok","response":{}}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(
			`{"topic":"realtime:public:enrolements","event":"postgres_changes","payload":{"data":{"type":"INSERT","record":{"id":"uuid-9","name":"Marie","created_at":"2025-01-01T10:00:00Z"}}}}`))
		// Mantiene la conexión hasta que el cliente cierre.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	src := NewRealtimeSource(Config{URL: srv.URL, APIKey: "anon", Table: "enrolements"}, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan repository.ChangeEvent, 1)
	done := make(chan error, 1)
	go func() { done <- src.Listen(ctx, func(ev repository.ChangeEvent) { events <- ev }) }()

	select {
	case join := <-joined:
		assert.Equal(t, "phx_join", join["event"])
		assert.Equal(t, testTopic, join["topic"])
	case <-time.After(2 * time.Second):
		t.Fatal("el cliente no envió phx_join")
	}

	select {
	case ev := <-events:
		assert.Equal(t, repository.ChangeInsert, ev.Kind)
		assert.Equal(t, "uuid-9", ev.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no se emitió el INSERT")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen no terminó al cancelar el contexto")
	}
}
