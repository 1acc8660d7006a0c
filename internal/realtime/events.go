package realtime

// Outbound event names pushed to connected clients.
const (
	EventCartUpdated  = "cartUpdated"
	EventOrderUpdate  = "orderUpdate"
	EventNotification = "notification"
	EventNewOrder     = "newOrder"
)

// EventAuthenticate is the only inbound event a client may send. Its data is
// the bearer token minted at login.
const EventAuthenticate = "authenticate"

// Envelope is the wire shape of every realtime message, in both directions.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}
