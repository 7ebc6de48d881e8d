// internal/store/token.go
package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"autoflow/internal/models"
)

// newToken generates the bearer capability attached to every record.
// Tokens gate all customer-facing reads, so they come from crypto/rand
// rather than the quote engine's cheap source.
func newToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// nextID assigns ids from the creation clock (Unix millis), bumped past
// the current maximum so two submissions in the same millisecond, or a
// clock stepping backwards, never reuse an id.
func nextID(apps []models.CreditApplication) int64 {
	id := time.Now().UnixMilli()
	for _, app := range apps {
		if app.ID >= id {
			id = app.ID + 1
		}
	}
	return id
}
