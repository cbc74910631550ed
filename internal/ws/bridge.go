package ws

import (
	"github.com/sirupsen/logrus"

	"energy_bill/internal/billing"
	"energy_bill/internal/logger"
)

// Bridge broadcasts newly stored reports to the WebSocket hub.
type Bridge struct {
	hub *Hub
	log logrus.FieldLogger
}

func NewBridge(hub *Hub, log logrus.FieldLogger) *Bridge {
	return &Bridge{hub: hub, log: logger.OrDiscard(log)}
}

// OnReport announces r to every connected client.
func (b *Bridge) OnReport(r *billing.Report) {
	msg, err := NewEnvelope(TypeReportLoaded, ReportLoadedFromReport(r))
	if err != nil {
		b.log.WithError(err).Error("marshaling report:loaded")
		return
	}
	b.hub.Broadcast(msg)
}
