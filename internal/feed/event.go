package feed

import (
	"encoding/json"
	"time"

	"github.com/safeher/platform/internal/repo"
)

// Event types delivered on the live channel.
const (
	EventNewSOS         = "NEW_SOS"
	EventSOSResolved    = "SOS_RESOLVED"
	EventLocationUpdate = "LOCATION_UPDATE"
)

// Event is the discriminated union pushed to subscribers. Data holds an
// Incident for NEW_SOS/SOS_RESOLVED and a LocationPatch for LOCATION_UPDATE.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Incident is the wire representation of an SOS event. The same shape is
// returned by the snapshot endpoints so ids stay stable across both paths.
type Incident struct {
	ID         string     `json:"id"`
	WomanID    string     `json:"woman_id"`
	WomanName  string     `json:"woman_name"`
	WomanPhone string     `json:"woman_phone"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Battery    int        `json:"battery"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// LocationPatch updates position and battery of a known incident in place.
type LocationPatch struct {
	SOSID     string    `json:"sos_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Battery   int       `json:"battery"`
	Timestamp time.Time `json:"timestamp"`
}

// IncidentFromRecord converts a stored SOS event to its wire shape.
func IncidentFromRecord(e repo.SOSEvent) Incident {
	return Incident{
		ID:         e.ID.String(),
		WomanID:    e.WomanID.String(),
		WomanName:  e.WomanName,
		WomanPhone: e.WomanPhone,
		Latitude:   e.Latitude,
		Longitude:  e.Longitude,
		Battery:    e.Battery,
		Status:     e.Status,
		CreatedAt:  e.CreatedAt,
		ResolvedAt: e.ResolvedAt,
	}
}

// NewIncidentEvent wraps an incident into a push event.
func NewIncidentEvent(eventType string, incident Incident) (Event, error) {
	data, err := json.Marshal(incident)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: data}, nil
}

// NewLocationEvent wraps a location patch into a push event.
func NewLocationEvent(patch LocationPatch) (Event, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: EventLocationUpdate, Data: data}, nil
}
