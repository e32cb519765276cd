package middleware

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// RateLimitSenders bounds how many sender buckets RateLimit remembers
const RateLimitSenders = 4096

// RateLimitError is returned when a sender issues commands too quickly
type RateLimitError struct {
	Sender  string
	Command string
}

func (e *RateLimitError) Error() string {
	return "slow down, " + e.Sender + ": too many '" + e.Command + "' commands"
}

// RateLimit gives every sender its own token bucket. Commands over the
// limit fail immediately instead of queueing.
//
// Buckets live in an LRU of RateLimitSenders entries and expire once they
// would have refilled completely, so idle senders cost nothing.
func RateLimit(limit rate.Limit, burst int) Middleware {
	return rateLimit(limit, burst, RateLimitSenders)
}

func rateLimit(limit rate.Limit, burst, senders int) Middleware {
	var mu sync.Mutex
	limiters := expirable.NewLRU[string, *rate.Limiter](senders, nil, refillTime(limit, burst))

	get := func(sender string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters.Get(sender)
		if !ok {
			l = rate.NewLimiter(limit, burst)
			limiters.Add(sender, l)
		}
		return l
	}

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			if !get(ctx.Sender()).Allow() {
				return &RateLimitError{Sender: ctx.Sender(), Command: getCommandName(ctx)}
			}
			return next(ctx)
		}
	}
}

// refillTime is how long an empty bucket takes to fill up again, at least a
// minute. 0 (never expire) when the bucket refills slower than once a day.
func refillTime(limit rate.Limit, burst int) time.Duration {
	switch {
	case limit == rate.Inf:
		return time.Minute
	case limit <= 0:
		return 0
	}
	secs := float64(burst) / float64(limit)
	if secs > (24 * time.Hour).Seconds() {
		return 0
	}
	return max(time.Duration(secs*float64(time.Second)), time.Minute)
}
