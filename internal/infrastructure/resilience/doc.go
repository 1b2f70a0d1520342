/*
Package resilience provides the circuit breaker that guards outbound calls to
widget data endpoints and action endpoints.

A closed breaker passes calls through and tallies outcomes. When Policy.Trip
approves a tally after a failure it opens, and calls fail fast with ErrOpen
for the cooldown. It then lets Policy.Probes calls through half-open: that
many successes close it, any failure reopens it.

	breaker := resilience.New("widget-upstream", resilience.Policy{
		Cooldown: 30 * time.Second,
		Trip: func(t resilience.Tally) bool {
			return t.FailureStreak >= 10
		},
	})

	err := breaker.Do(func() error {
		return fetchOnce(ctx)
	})
*/
package resilience
