package snapshot

// DefaultMaxSubstitutions is the per-set ordinary substitution ceiling.
const DefaultMaxSubstitutions = 6

type config struct {
	autoLibero bool
	maxSubs    int
	upTo       int
}

func defaultConfig() config {
	return config{autoLibero: true, maxSubs: DefaultMaxSubstitutions, upTo: -1}
}

// Option configures a replay.
type Option func(*config)

// WithAutoLibero controls whether the libero takes the back-row middle
// blocker's slot on its own. When disabled it only enters through logged
// substitutions.
func WithAutoLibero(enabled bool) Option {
	return func(c *config) {
		c.autoLibero = enabled
	}
}

// WithMaxSubstitutions sets the per-set ordinary substitution ceiling. Zero
// or a negative value removes the ceiling.
func WithMaxSubstitutions(n int) Option {
	return func(c *config) {
		c.maxSubs = n
	}
}

// UpTo replays only the first n events.
func UpTo(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.upTo = n
		}
	}
}
