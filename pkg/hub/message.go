// Package hub provides a channel-based websocket broadcast hub, used to
// fan out live statistics and camera frames to dashboard clients.
package hub

// MessageType indicates the websocket message format
type MessageType int

const (
	// JSONMessage is a JSON-encoded message (statistics updates)
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data (JPEG frames)
	BinaryMessage
)

// Message represents a message to be broadcast to clients
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage creates a JSON message from pre-encoded bytes
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage creates a binary message
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
