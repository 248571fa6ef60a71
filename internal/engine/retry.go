package engine

import (
	"time"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/history"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
)

// DefaultMaxRetries is the retry count at which a feature should be blocked.
const DefaultMaxRetries = 5

// BlockReasonRetries is the standard reason used when retries run out.
const BlockReasonRetries = "retry limit reached; needs operator review"

// RetryResult reports the counter after an increment.
type RetryResult struct {
	Count       int  `json:"count"`
	ShouldBlock bool `json:"should_block"`
}

// IncrementRetry bumps the retry counter. It only signals when the threshold
// is reached; blocking is left to the caller.
func (e *Engine) IncrementRetry(id string) (RetryResult, error) {
	f, err := e.mutate(id, func(f *ledger.Feature, now time.Time) history.Event {
		f.RetryCount++
		return history.NewRetryIncremented(now, id, f.RetryCount)
	})
	if err != nil {
		return RetryResult{}, err
	}
	return RetryResult{Count: f.RetryCount, ShouldBlock: f.RetryCount >= e.maxRetries}, nil
}

// ResetRetry zeroes the retry counter. The phase is unchanged.
func (e *Engine) ResetRetry(id string) (ledger.Feature, error) {
	return e.mutate(id, func(f *ledger.Feature, now time.Time) history.Event {
		f.RetryCount = 0
		return history.NewRetryReset(now, id)
	})
}
