package domain

import "time"

// Token is a signed credential together with its validity window.
type Token struct {
	Raw       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
