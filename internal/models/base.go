package models

import "github.com/google/uuid"

// ensureID assigns a random UUID when the row has no primary key yet.
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
