// Package protocol defines the frame string written to the client clipboard
// and the JSON messages streamed by the local status server.
package protocol

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeSummary carries one reporting interval of pipeline statistics
	TypeSummary MessageType = "summary"

	// TypeDelivery is sent when the delivery channel starts or stops sending
	TypeDelivery MessageType = "delivery"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// DeliveryPayload is the payload for TypeDelivery
type DeliveryPayload struct {
	Active bool   `json:"active"`
	Reason string `json:"reason,omitempty"`
}
