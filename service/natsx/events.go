package natsx

import (
	"encoding/json"
	"time"

	"CareGene/tools/ids"
)

// Subject carrying every domain event; the notifier fans out per user.
const EventsSubject = "caregene.events"

// Event types.
const (
	EventConversationUpdated = "conversation.updated"
	EventMessageRecorded     = "message.recorded"
	EventFriendRequested     = "friend.requested"
	EventFriendResponded     = "friend.responded"
	EventCommunityJoined     = "community.joined"
)

// Event is the envelope pushed to the bus after a successful write.
// Targets are the user ids whose inbox views are affected.
type Event struct {
	ID      string          `json:"id"` // snowflake, lets consumers dedupe
	Type    string          `json:"type"`
	Targets []string        `json:"targets"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

// PublishEvent marshals and publishes; callers treat failures as
// non-fatal (the write already happened) and only log them.
func (m *NatsManager) PublishEvent(typ string, targets []string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = b
	}
	ev := Event{
		ID:      ids.GenerateString(),
		Type:    typ,
		Targets: targets,
		Payload: raw,
		At:      time.Now(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return m.Publish(EventsSubject, data, nil)
}
