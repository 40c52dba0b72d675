package backoff

import (
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/viper"
)

// Policy is the backoff curve applied between retry attempts: exponential
// in the attempt number, capped. The only contract the sync protocol needs
// is a non-decreasing delay.
type Policy struct {
	Base time.Duration
	Cap  time.Duration
}

// NewPolicy builds the policy from configuration, falling back to 30s base
// and a 1h cap.
func NewPolicy() Policy {
	base := viper.GetDuration("sync.backoff_base")
	if base == 0 {
		base = 30 * time.Second
	}

	capDuration := viper.GetDuration("sync.backoff_cap")
	if capDuration == 0 {
		capDuration = time.Hour
	}

	return Policy{Base: base, Cap: capDuration}
}

// Delay returns the backoff for the given 1-based attempt number.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	b := retry.WithCappedDuration(p.Cap, retry.NewExponential(p.Base))

	var delay time.Duration
	for i := 0; i < attempt; i++ {
		next, stop := b.Next()
		if stop {
			break
		}
		delay = next
	}

	return delay
}
