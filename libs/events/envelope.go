// Package events defines the cross-service user event contract: the
// versioned envelope, the closed set of event kinds, and the topic/key
// routing constants shared by the auth service publisher and the task
// tracker consumer.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies a user lifecycle or business event.
type Kind string

const (
	UserCreated     Kind = "user_created"
	UserUpdated     Kind = "user_updated"
	UserDeleted     Kind = "user_deleted"
	UserRoleChanged Kind = "user_role_changed"
)

// UserTopic is the single shared topic for user events.
const UserTopic = "user-events"

// Routing keys carried as the Kafka message key. CUD events replicate user
// state; BIZ events carry business semantics and never mutate shadow state.
const (
	KeyCUD = "cud"
	KeyBIZ = "biz"
)

// Envelope wraps every published event. Version is reserved for schema
// evolution and is always 1 today.
type Envelope struct {
	ID      string         `msgpack:"id"`
	Name    Kind           `msgpack:"name"`
	Data    map[string]any `msgpack:"data"`
	Time    string         `msgpack:"time"`
	Version int            `msgpack:"version"`
}

// NewEnvelope builds an envelope with a fresh unique id and the current UTC
// timestamp.
func NewEnvelope(name Kind, data map[string]any) Envelope {
	return Envelope{
		ID:      uuid.NewString(),
		Name:    name,
		Data:    data,
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Version: 1,
	}
}
