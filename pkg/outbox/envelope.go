package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event. Customer-driven events carry no actor.
type ActorRef struct {
	UserID  string `json:"userId"`
	StoreID string `json:"storeId,omitempty"`
	Role    string `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
