package scoring

import "github.com/okian/courtside/internal/domain/snapshot"

// Option applies a configuration option to Rules.
type Option func(*Rules)

// WithSetPoints sets the points needed to win a regular set.
func WithSetPoints(points int) Option {
	return func(r *Rules) {
		if points > 0 {
			r.setPoints = points
		}
	}
}

// WithTieBreakPoints sets the points needed to win the deciding set.
func WithTieBreakPoints(points int) Option {
	return func(r *Rules) {
		if points > 0 {
			r.tieBreakPoints = points
		}
	}
}

// WithMinLead sets the lead a side needs to close a set.
func WithMinLead(lead int) Option {
	return func(r *Rules) {
		if lead > 0 {
			r.minLead = lead
		}
	}
}

// WithSetsToWin sets how many sets win the match. The match length follows:
// best of 2n-1.
func WithSetsToWin(sets int) Option {
	return func(r *Rules) {
		if sets > 0 {
			r.setsToWin = sets
			r.maxSets = 2*sets - 1
		}
	}
}

// WithReplayOptions sets the options used whenever a set is replayed.
func WithReplayOptions(opts ...snapshot.Option) Option {
	return func(r *Rules) {
		r.replay = append([]snapshot.Option(nil), opts...)
	}
}
