package models

import "time"

// FactStatus is the temporal state of a fact record.
type FactStatus string

const (
	// StatusActive marks a fact that is currently considered true.
	StatusActive FactStatus = "active"
	// StatusHistorical marks a fact that has been superseded. Historical
	// records are read-only once written.
	StatusHistorical FactStatus = "historical"
)

// Source records the provenance of a fact: the original user message and
// its timestamp. It is written once at insertion and never modified.
type Source struct {
	Text      string    `bson:"text" json:"text"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// FactRecord is a single temporal fact about a user. A record is created
// active and transitions at most once to historical, at which point
// ValidUntil is set. Content, Entity, UserID and Source are immutable
// after creation.
type FactRecord struct {
	ID         string     `bson:"_id" json:"id"`
	UserID     string     `bson:"user_id" json:"user_id"`
	Entity     string     `bson:"entity" json:"entity"`
	Content    string     `bson:"content" json:"content"`
	Status     FactStatus `bson:"status" json:"status"`
	ValidFrom  time.Time  `bson:"valid_from" json:"valid_from"`
	ValidUntil *time.Time `bson:"valid_until,omitempty" json:"valid_until,omitempty"`
	Source     Source     `bson:"source" json:"source"`
}

// HistoricalFact is the read-side view of a superseded fact, with
// RFC 3339 timestamps for the conversational layer.
type HistoricalFact struct {
	Content    string `json:"content"`
	ValidFrom  string `json:"valid_from,omitempty"`
	ValidUntil string `json:"valid_until,omitempty"`
}
