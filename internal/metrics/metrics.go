package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Hooks implements realtime.Hooks on prometheus counters. All methods are
// fire-and-forget; counter increments never fail the caller.
type Hooks struct {
	registry *prometheus.Registry

	connections    *prometheus.CounterVec
	disconnections *prometheus.CounterVec
	roomJoins      *prometheus.CounterVec
	roomLeaves     *prometheus.CounterVec
	eventsRelayed  *prometheus.CounterVec
	deliveryFaults prometheus.Counter
}

// NewHooks builds the counter set on a private prometheus registry.
func NewHooks() *Hooks {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Hooks{
		registry: reg,
		connections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Websocket connections accepted.",
		}, []string{"user_role"}),
		disconnections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "websocket_disconnections_total",
			Help: "Websocket connections closed.",
		}, []string{"user_role"}),
		roomJoins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "websocket_room_joins_total",
			Help: "Room joins by room type.",
		}, []string{"room_type"}),
		roomLeaves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "websocket_room_leaves_total",
			Help: "Room leaves by room type.",
		}, []string{"room_type"}),
		eventsRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "websocket_events_relayed_total",
			Help: "Domain events relayed to rooms.",
		}, []string{"event"}),
		deliveryFaults: factory.NewCounter(prometheus.CounterOpts{
			Name: "websocket_delivery_faults_total",
			Help: "Sends that failed against a dead connection.",
		}),
	}
}

func (h *Hooks) ConnectionOpened(role string) { h.connections.WithLabelValues(role).Inc() }
func (h *Hooks) ConnectionClosed(role string) { h.disconnections.WithLabelValues(role).Inc() }
func (h *Hooks) RoomJoined(roomType string)   { h.roomJoins.WithLabelValues(roomType).Inc() }
func (h *Hooks) RoomLeft(roomType string)     { h.roomLeaves.WithLabelValues(roomType).Inc() }
func (h *Hooks) EventRelayed(event string)    { h.eventsRelayed.WithLabelValues(event).Inc() }
func (h *Hooks) DeliveryFault()               { h.deliveryFaults.Inc() }

// Handler exposes the counters for scraping.
func (h *Hooks) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}
