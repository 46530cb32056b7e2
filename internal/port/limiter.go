package port

import "assistant/internal/domain"

// Limiter admits or rejects a request for the given client key.
// Implementations must perform the check-and-increment as a single
// atomic update so concurrent requests are never undercounted.
type Limiter interface {
	Check(key string) (domain.RateDecision, error)
}
