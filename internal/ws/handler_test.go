package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_bill/internal/billing"
	"energy_bill/internal/store"
)

func sampleInputs() billing.Inputs {
	return billing.Inputs{
		SpotFile:             "../../testdata/spot_sample.csv",
		SpotDelimiter:        ',',
		ConsumptionFile:      "../../testdata/consumption_sample.csv",
		ConsumptionDelimiter: ';',
	}
}

// testReloader runs the checker and announces the result like the server does.
type testReloader struct {
	store  *store.Store
	bridge *Bridge
	in     billing.Inputs
}

func (r *testReloader) Reload(context.Context) (*billing.Report, error) {
	rep, err := billing.NewChecker().RunFiles(r.in)
	if err != nil {
		return nil, err
	}
	r.store.Add(rep)
	r.bridge.OnReport(rep)
	return rep, nil
}

// testHandler creates a store preloaded with the sample report.
func testHandler(t *testing.T) (*Handler, *store.Store, *testReloader) {
	t.Helper()
	hub := NewHub(nil)
	s := store.New(5)
	reloader := &testReloader{store: s, bridge: NewBridge(hub, nil), in: sampleInputs()}
	_, err := reloader.Reload(context.Background())
	require.NoError(t, err)
	return NewHandler(hub, s, reloader, nil), s, reloader
}

// dialHandler sets up a test server with the handler and returns a WS connection.
func dialHandler(t *testing.T, handler *Handler) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

// readJSON reads the next JSON message from the connection.
func readJSON(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

// sendJSON sends a JSON message on the connection.
func sendJSON(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := NewEnvelope(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func readError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	env := readJSON(t, conn)
	require.Equal(t, TypeError, env.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	return p.Message
}

func TestHandler_InitialReport(t *testing.T) {
	handler, s, _ := testHandler(t)
	latest, err := s.Latest()
	require.NoError(t, err)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	env := readJSON(t, conn)
	assert.Equal(t, TypeReportLoaded, env.Type)

	var p ReportLoadedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, latest.ID.String(), p.ID)
	assert.Equal(t, 2, p.Days)
	assert.False(t, p.Partial)
	assert.Equal(t, "36.500", p.Totals.Consumption)
}

func TestHandler_NoReport(t *testing.T) {
	handler := NewHandler(NewHub(nil), store.New(1), nil, nil)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	assert.Equal(t, "no report loaded", readError(t, conn))

	sendJSON(t, conn, TypeReportReload, nil)
	assert.Equal(t, "reload not available", readError(t, conn))
}

func TestHandler_ViewRequest(t *testing.T) {
	handler, _, _ := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn) // report:loaded

	sendJSON(t, conn, TypeViewRequest, ViewRequestPayload{View: "consumption"})
	env := readJSON(t, conn)
	require.Equal(t, TypeViewData, env.Type)

	var p struct {
		View string                       `json:"view"`
		Data map[string]map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "consumption", p.View)
	assert.Len(t, p.Data, 2)
	assert.Equal(t, "1.000", p.Data["2022-10-30"]["03:00"])
}

func TestHandler_ViewRequestDefaultsToSummary(t *testing.T) {
	handler, _, _ := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn)

	sendJSON(t, conn, TypeViewRequest, ViewRequestPayload{})
	env := readJSON(t, conn)
	require.Equal(t, TypeViewData, env.Type)

	var p struct {
		View string   `json:"view"`
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "summary", p.View)
	require.NotEmpty(t, p.Data)
	assert.Equal(t, "Total consumption: 36.500 kWh", p.Data[0])
}

func TestHandler_ViewRequestErrors(t *testing.T) {
	handler, _, _ := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn)

	sendJSON(t, conn, TypeViewRequest, ViewRequestPayload{View: "weekly"})
	assert.Contains(t, readError(t, conn), "unknown view")

	sendJSON(t, conn, TypeViewRequest, ViewRequestPayload{View: "totals", ReportID: "not-a-uuid"})
	assert.Contains(t, readError(t, conn), "invalid report id")

	sendJSON(t, conn, TypeViewRequest, ViewRequestPayload{View: "totals", ReportID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"})
	assert.Contains(t, readError(t, conn), store.ErrNotFound.Error())

	sendJSON(t, conn, "sim:start", nil)
	assert.Contains(t, readError(t, conn), "unknown message type")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Contains(t, readError(t, conn), "invalid message")
}

func TestHandler_Reload(t *testing.T) {
	handler, s, _ := testHandler(t)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	first := readJSON(t, conn)
	var before ReportLoadedPayload
	require.NoError(t, json.Unmarshal(first.Payload, &before))

	sendJSON(t, conn, TypeReportReload, nil)

	env := readJSON(t, conn)
	require.Equal(t, TypeReportLoaded, env.Type)
	var after ReportLoadedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &after))
	assert.NotEqual(t, before.ID, after.ID)
	assert.Equal(t, 2, s.Len())
}

type failingReloader struct{}

func (failingReloader) Reload(context.Context) (*billing.Report, error) {
	return nil, errors.New("consumption file vanished")
}

func TestHandler_ReloadFailure(t *testing.T) {
	handler, s, _ := testHandler(t)
	handler.reloader = failingReloader{}

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readJSON(t, conn)

	sendJSON(t, conn, TypeReportReload, nil)
	assert.Contains(t, readError(t, conn), "consumption file vanished")
	assert.Equal(t, 1, s.Len())
}
