package models

import "time"

// PlanRecord is an archived presented plan, persisted for later retrieval.
type PlanRecord struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	ChatID    string    `json:"chatId" bson:"chatId"`
	City      string    `json:"city,omitempty" bson:"city,omitempty"`
	DateKey   string    `json:"dateKey,omitempty" bson:"dateKey,omitempty"`
	Plan      Itinerary `json:"plan" bson:"plan"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
