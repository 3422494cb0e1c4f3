package simulate

import (
	"time"

	"github.com/okian/courtside/internal/domain/scoring"
	"github.com/okian/courtside/internal/domain/substitution"
)

// Option configures a Generator.
type Option func(*Generator)

// WithSeed fixes the random stream. Equal seeds give equal matches.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.seed = seed }
}

// WithServeWinRate sets the probability that the serving side wins a rally.
func WithServeWinRate(p float64) Option {
	return func(g *Generator) {
		if p > 0 && p < 1 {
			g.serveWin = p
		}
	}
}

// WithSubstitutionRate sets the per-rally probability of a substitution.
func WithSubstitutionRate(p float64) Option {
	return func(g *Generator) {
		if p >= 0 && p <= 1 {
			g.subRate = p
		}
	}
}

// WithTimeoutRate sets the per-rally probability of a timeout.
func WithTimeoutRate(p float64) Option {
	return func(g *Generator) {
		if p >= 0 && p <= 1 {
			g.timeoutRate = p
		}
	}
}

// WithRules sets the win conditions used to end sets and matches.
func WithRules(r *scoring.Rules) Option {
	return func(g *Generator) {
		if r != nil {
			g.rules = r
		}
	}
}

// WithResolver sets the substitution rules.
func WithResolver(r *substitution.Resolver) Option {
	return func(g *Generator) {
		if r != nil {
			g.resolver = r
		}
	}
}

// WithStartDate sets the date of the first generated match.
func WithStartDate(t time.Time) Option {
	return func(g *Generator) { g.date = t }
}
