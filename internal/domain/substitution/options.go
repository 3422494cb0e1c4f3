package substitution

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxSubstitutions sets the per-set ordinary substitution ceiling. Zero
// or a negative value removes the ceiling.
func WithMaxSubstitutions(n int) Option {
	return func(r *Resolver) {
		r.maxSubs = n
	}
}

// WithRoleMatching restricts replacements to roster players whose listed role
// matches the role being replaced.
func WithRoleMatching(enabled bool) Option {
	return func(r *Resolver) {
		r.roleMatch = enabled
	}
}
