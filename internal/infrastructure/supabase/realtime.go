package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/changefeed"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

var _ changefeed.Source = (*RealtimeSource)(nil)

const heartbeatInterval = 30 * time.Second

// RealtimeSource fuente de cambios sobre Supabase Realtime (protocolo Phoenix, vsn 1.0.0).
type RealtimeSource struct {
	wsURL     string
	table     string
	heartbeat time.Duration
	log       *logger.Logger
}

// NewRealtimeSource construye la fuente para la tabla de cfg en el esquema public.
func NewRealtimeSource(cfg Config, log *logger.Logger) *RealtimeSource {
	return &RealtimeSource{
		wsURL:     realtimeURL(cfg.URL, cfg.APIKey),
		table:     cfg.Table,
		heartbeat: heartbeatInterval,
		log:       log.Component("supabase-realtime"),
	}
}

func realtimeURL(baseURL, apiKey string) string {
	ws := strings.TrimSuffix(baseURL, "/")
	switch {
	case strings.HasPrefix(ws, "https"):
		ws = "wss" + strings.TrimPrefix(ws, "https")
	case strings.HasPrefix(ws, "http"):
		ws = "ws" + strings.TrimPrefix(ws, "http")
	}
	return ws + "/realtime/v1/websocket?apikey=" + apiKey + "&vsn=1.0.0"
}

func (s *RealtimeSource) topic() string {
	return "realtime:public:" + s.table
}

// phxMessage mensaje saliente del protocolo Phoenix.
type phxMessage struct {
	Topic   string `json:"topic"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
	Ref     string `json:"ref"`
	JoinRef string `json:"join_ref,omitempty"`
}

// Listen abre el websocket, se une al canal de la tabla y emite cambios hasta que ctx se
// cancela o el servidor cierra/rechaza el canal.
func (s *RealtimeSource) Listen(ctx context.Context, emit func(repository.ChangeEvent)) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	var (
		writeMu sync.Mutex
		ref     int
	)
	send := func(msg phxMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		ref++
		msg.Ref = strconv.Itoa(ref)
		if msg.Event == "phx_join" {
			msg.JoinRef = msg.Ref
		}
		return conn.WriteJSON(msg)
	}

	join := phxMessage{
		Topic: s.topic(),
		Event: "phx_join",
		Payload: map[string]any{
			"config": map[string]any{
				"postgres_changes": []map[string]any{
					{"event": "*", "schema": "public", "table": s.table},
				},
			},
		},
	}
	if err := send(join); err != nil {
		return fmt.Errorf("enviar phx_join: %w", err)
	}
	s.log.Info().Str("topic", s.topic()).Msg("suscrito a cambios realtime")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				// Desbloquea ReadMessage.
				writeMu.Lock()
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				writeMu.Unlock()
				_ = conn.Close()
				return
			case <-ticker.C:
				if err := send(phxMessage{Topic: "phoenix", Event: "heartbeat", Payload: map[string]any{}}); err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("websocket read: %w", err)
		}
		ev, ok, err := parseRealtimeMessage(raw, s.topic())
		if err != nil {
			return err
		}
		if ok {
			emit(ev)
		}
	}
}

// parseRealtimeMessage interpreta un mensaje entrante. ok=false para mensajes de control;
// err para rechazos o cierres del canal, que obligan a reconectar.
func parseRealtimeMessage(raw []byte, topic string) (repository.ChangeEvent, bool, error) {
	msg := gjson.ParseBytes(raw)
	if msg.Get("topic").String() != topic {
		return repository.ChangeEvent{}, false, nil
	}

	var (
		kind              string
		record, oldRecord gjson.Result
	)
	switch event := msg.Get("event").String(); event {
	case "postgres_changes":
		data := msg.Get("payload.data")
		kind, record, oldRecord = data.Get("type").String(), data.Get("record"), data.Get("old_record")
	case "INSERT", "UPDATE", "DELETE":
		// Formato anterior de Realtime: el tipo viaja en event.
		payload := msg.Get("payload")
		kind, record, oldRecord = event, payload.Get("record"), payload.Get("old_record")
	case "phx_reply":
		if status := msg.Get("payload.status").String(); status != "ok" {
			return repository.ChangeEvent{}, false, fmt.Errorf("canal %s rechazado: %s", topic, msg.Get("payload.response").Raw)
		}
		return repository.ChangeEvent{}, false, nil
	case "phx_error", "phx_close":
		return repository.ChangeEvent{}, false, fmt.Errorf("canal %s cerrado por el servidor (%s)", topic, event)
	default:
		return repository.ChangeEvent{}, false, nil
	}

	ev := repository.ChangeEvent{Kind: repository.ChangeKind(kind)}
	switch ev.Kind {
	case repository.ChangeInsert, repository.ChangeUpdate:
		var row remoteRow
		if !record.IsObject() || json.Unmarshal([]byte(record.Raw), &row) != nil {
			return repository.ChangeEvent{}, false, nil
		}
		rec := row.toEntity()
		ev.Record = &rec
		ev.ID = rec.ID
	case repository.ChangeDelete:
		ev.ID = oldRecord.Get("id").String()
		if ev.ID == "" {
			return repository.ChangeEvent{}, false, nil
		}
	default:
		return repository.ChangeEvent{}, false, nil
	}
	return ev, true, nil
}
