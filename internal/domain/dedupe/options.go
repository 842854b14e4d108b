// Package dedupe enforces that every artifact is owned by at most one slot.
package dedupe

// Option applies a configuration option to the resolver.
type Option func(*resolver)

// WithOnConflict registers a callback invoked for every collision, in the
// order collisions are resolved.
func WithOnConflict(fn func(Conflict)) Option {
	return func(r *resolver) {
		r.onConflict = fn
	}
}
