package ai

import "time"

// Action is what the router does after a failed attempt
type Action int

const (
	// ActionAdvance moves on to the next candidate
	ActionAdvance Action = iota
	// ActionRetry retries the same candidate after a backoff, up to RateLimitRetries
	ActionRetry
	// ActionMarkDead records the provider as dead for the request and advances
	ActionMarkDead
)

func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionMarkDead:
		return "mark_dead"
	default:
		return "advance"
	}
}

// Policy is the retry/fallback rule set consumed by Router.Generate
type Policy struct {
	RateLimitRetries int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	// Jitter is the +/- fraction applied to each delay
	Jitter  float64
	Actions map[Outcome]Action
}

// DefaultPolicy retries rate limits twice, kills a provider on AUTH and
// advances on everything else.
func DefaultPolicy() Policy {
	return Policy{
		RateLimitRetries: 2,
		BaseDelay:        time.Second,
		MaxDelay:         8 * time.Second,
		Jitter:           0.25,
		Actions: map[Outcome]Action{
			OutcomeAuth:      ActionMarkDead,
			OutcomeRateLimit: ActionRetry,
			OutcomeTruncated: ActionAdvance,
			OutcomeOther:     ActionAdvance,
		},
	}
}

// Action returns the action for an outcome. Unlisted outcomes advance.
func (p Policy) Action(o Outcome) Action {
	if a, ok := p.Actions[o]; ok {
		return a
	}
	return ActionAdvance
}

// Delay is the wait before retry number n (0-based). u is a uniform sample in
// [0,1) used for jitter.
func (p Policy) Delay(n int, u float64) time.Duration {
	d := p.BaseDelay
	for i := 0; i < n && (p.MaxDelay <= 0 || d < p.MaxDelay); i++ {
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		d = time.Duration(float64(d) * (1 - p.Jitter + 2*p.Jitter*u))
	}
	return d
}
