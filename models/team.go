package models

import "time"

type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ShortName *string   `json:"short_name,omitempty" db:"short_name"`
	Color     *string   `json:"color,omitempty" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
