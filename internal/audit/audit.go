// Package audit emits structured audit events for security-relevant actions:
// logins, record mutations, prediction requests. Publishing is best-effort;
// a failed emit never fails the request that caused it.
package audit

import (
	"context"
	"time"
)

// Event is a single audit record.
type Event struct {
	ActorID   string    `json:"actor_id,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity,omitempty"`
	EntityID  string    `json:"entity_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Actions emitted by the services.
const (
	ActionUserRegistered    = "user.registered"
	ActionUserLoggedIn      = "user.logged_in"
	ActionFarmCreated       = "farm.created"
	ActionFarmUpdated       = "farm.updated"
	ActionAnimalCreated     = "animal.created"
	ActionAnimalUpdated     = "animal.updated"
	ActionAnimalDeactivated = "animal.deactivated"
	ActionMilkRecorded      = "milk.recorded"
	ActionDiseaseRecorded   = "disease.recorded"
	ActionAlertResolved     = "alert.resolved"
	ActionPredictionServed  = "prediction.served"
)

// Publisher delivers audit events to the audit sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, Event) error { return nil }
