package models

import "time"

// LoginAttempt is one failed credential check from a source address
type LoginAttempt struct {
	ID            int64     `db:"id"`
	SourceAddress string    `db:"source_address"`
	AttemptedAt   time.Time `db:"attempted_at"`
}

// LoginAttemptWindow summarizes the recent attempts the limiter counts
type LoginAttemptWindow struct {
	Count int
	// Oldest is the earliest attempt among the most recent counted attempts
	Oldest *time.Time
}
