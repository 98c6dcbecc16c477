package realtime

import "encoding/json"

// Row-change event types delivered on a subscribed topic.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Protocol events of the channel transport.
const (
	eventJoin      = "phx_join"
	eventLeave     = "phx_leave"
	eventReply     = "phx_reply"
	eventError     = "phx_error"
	eventHeartbeat = "heartbeat"

	heartbeatTopic = "phoenix"
)

// Message is one frame of the channel protocol. Ref correlates a request
// with its phx_reply.
type Message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

// Change is one row change on a subscribed table.
type Change struct {
	Schema    string         `json:"schema"`
	Table     string         `json:"table"`
	Type      string         `json:"type"`
	Record    map[string]any `json:"record"`
	OldRecord map[string]any `json:"old_record"`
}

// Topic names the channel carrying changes for schema.table.
func Topic(schema, table string) string {
	return "realtime:" + schema + ":" + table
}
