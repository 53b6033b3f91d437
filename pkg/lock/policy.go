package lock

import (
	"github.com/wayneeseguin/syncore/internal/config"
	"github.com/wayneeseguin/syncore/internal/diag"
	"github.com/wayneeseguin/syncore/pkg/errs"
)

// policy decides how programmer-error failures (double lock, unlock when not
// locked) are reported. The zero value defers to SYNCORE_STRICT.
type policy int8

const (
	policyDefault policy = iota
	policyLenient
	policyStrict
)

func (p policy) strict() bool {
	switch p {
	case policyStrict:
		return true
	case policyLenient:
		return false
	}
	return config.Load().Strict
}

// Option configures a lock.
type Option func(*options)

type options struct {
	name   string
	policy policy
}

// WithStrict selects the strict policy (misuse panics with the *errs.Error)
// or the lenient one (misuse is logged and ignored).
func WithStrict(strict bool) Option {
	return func(o *options) {
		if strict {
			o.policy = policyStrict
		} else {
			o.policy = policyLenient
		}
	}
}

// WithName names the lock in diagnostics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// misuse reports a programmer error. Strict panics; lenient logs and returns
// nil so the caller carries on.
func misuse(p policy, name, op string, kind errs.Kind) error {
	err := errs.New(errs.PrimitiveLock, op, kind)
	if p.strict() {
		panic(err)
	}
	diag.Warn("lock misuse ignored", "lock", name, "op", op, "kind", kind.String())
	return nil
}

// fail reports a misuse that is always surfaced as an error (strict still
// panics).
func fail(p policy, op string, kind errs.Kind) error {
	err := errs.New(errs.PrimitiveLock, op, kind)
	if p.strict() {
		panic(err)
	}
	return err
}
