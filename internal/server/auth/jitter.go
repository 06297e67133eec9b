package auth

import (
	"math/rand/v2"
	"time"
)

// Delay bounds for failed credential checks.
const (
	VerifyDelayMin = 150 * time.Millisecond
	VerifyDelayMax = 400 * time.Millisecond
	LoginDelayMin  = 250 * time.Millisecond
	LoginDelayMax  = 500 * time.Millisecond
)

// Delayer blocks for a random duration in [min, max]. The wait ignores
// request cancellation.
type Delayer func(min, max time.Duration)

// SleepDelayer is the production Delayer.
func SleepDelayer(min, max time.Duration) {
	time.Sleep(JitterDuration(min, max))
}

// JitterDuration picks a uniform duration in [min, max].
func JitterDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)+1))
}
