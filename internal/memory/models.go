package memory

import "time"

// ItemMemory records the last-seen state for one (user, fingerprint) pair.
type ItemMemory struct {
	UserID      string
	Fingerprint string
	ContentHash string
	FirstSeen   time.Time
	LastSeen    time.Time
	SeenCount   int
	Source      string
	ItemType    string
	Title       string
}

// TrainingSample is one feedback-derived example for the learned scorer.
type TrainingSample struct {
	Features  [5]float64
	Target    float64
	CreatedAt time.Time
}
