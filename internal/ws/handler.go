package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"energy_bill/internal/billing"
	"energy_bill/internal/logger"
	"energy_bill/internal/metrics"
	"energy_bill/internal/model"
	"energy_bill/internal/report"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Reports looks up stored reports.
type Reports interface {
	Latest() (*billing.Report, error)
	Get(id uuid.UUID) (*billing.Report, error)
}

// Reloader recomputes the report from the configured inputs. A successful
// reload is announced to all clients by the caller's Bridge.
type Reloader interface {
	Reload(ctx context.Context) (*billing.Report, error)
}

// Handler manages WebSocket connections and answers view requests.
type Handler struct {
	hub      *Hub
	reports  Reports
	reloader Reloader
	log      logrus.FieldLogger
}

func NewHandler(hub *Hub, reports Reports, reloader Reloader, log logrus.FieldLogger) *Handler {
	return &Handler{hub: hub, reports: reports, reloader: reloader, log: logger.OrDiscard(log)}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendLatest(client)

	h.readPump(r.Context(), client)
}

func (h *Handler) readPump(ctx context.Context, c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).Warn("websocket read error")
			}
			return
		}

		h.handleMessage(ctx, c, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.sendError(c, fmt.Sprintf("invalid message: %v", err))
		return
	}

	switch env.Type {
	case TypeViewRequest:
		var p ViewRequestPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, fmt.Sprintf("invalid %s payload: %v", TypeViewRequest, err))
			return
		}
		h.sendView(c, p)

	case TypeReportReload:
		if h.reloader == nil {
			h.sendError(c, "reload not available")
			return
		}
		if _, err := h.reloader.Reload(ctx); err != nil {
			h.log.WithError(err).Warn("report reload failed")
			h.sendError(c, fmt.Sprintf("reload failed: %v", err))
		}

	default:
		h.sendError(c, fmt.Sprintf("unknown message type %q", env.Type))
	}
}

func (h *Handler) sendView(c *Client, p ViewRequestPayload) {
	view, err := model.ParseView(p.View)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	r, err := h.lookup(p.ReportID)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	data, err := report.ViewData(r, view)
	if err != nil {
		metrics.IncExport(string(view), metrics.ResultError)
		h.sendError(c, err.Error())
		return
	}
	msg, err := NewEnvelope(TypeViewData, ViewDataPayload{
		ReportID: r.ID.String(),
		View:     string(view),
		Data:     data,
	})
	if err != nil {
		metrics.IncExport(string(view), metrics.ResultError)
		h.sendError(c, err.Error())
		return
	}
	metrics.IncExport(string(view), metrics.ResultSuccess)
	h.send(c, msg)
}

func (h *Handler) lookup(id string) (*billing.Report, error) {
	if id == "" {
		return h.reports.Latest()
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid report id %q: %w", id, err)
	}
	return h.reports.Get(parsed)
}

// sendLatest greets a new client with the current report, if there is one.
func (h *Handler) sendLatest(c *Client) {
	r, err := h.reports.Latest()
	if err != nil {
		h.sendError(c, "no report loaded")
		return
	}
	msg, err := NewEnvelope(TypeReportLoaded, ReportLoadedFromReport(r))
	if err != nil {
		h.log.WithError(err).Error("marshaling report:loaded")
		return
	}
	h.send(c, msg)
}

func (h *Handler) sendError(c *Client, message string) {
	msg, err := NewEnvelope(TypeError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	h.send(c, msg)
}

func (h *Handler) send(c *Client, msg []byte) {
	if !h.hub.trySend(c, msg) {
		h.log.Warn("client unavailable, dropping message")
	}
}
