// services/publisher.go
package services

import "context"

// Publisher dispatches domain events to connected clients. Satisfied by
// *websocket.Hub; services stay testable against a recording fake.
type Publisher interface {
	// PublishToUser delivers an event to one recipient. It must never block.
	PublishToUser(userID, kind string, payload interface{})
	// PublishToRole fans an event out to every user holding the given role.
	PublishToRole(ctx context.Context, role, kind string, payload interface{})
}
