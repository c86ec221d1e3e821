package models

import "time"

// Item represents one stored item in the host application's API.
type Item struct {
	ID        string    `json:"id" badgerhold:"key"`
	Name      string    `json:"name"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
