package mobl

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/samuelfneumann/moblarms/environment"
	"github.com/samuelfneumann/moblarms/environment/sim"
)

// Env is a task variant built on a FixedEye
type Env interface {
	environment.Environment
	Base() *FixedEye
}

// Constructor builds a task variant on a FixedEye
type Constructor func(base *FixedEye) (Env, error)

var constructors = map[string]Constructor{
	TrackingName: func(base *FixedEye) (Env, error) {
		return NewTracking(base)
	},
	PointingName: func(base *FixedEye) (Env, error) {
		return NewPointing(base)
	},
}

// Names returns the names of all task variants
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Make builds the named task variant simulated by s. On success the
// environment owns s.
func Make(name string, s sim.Simulator, config Config,
	opts ...Option) (Env, error) {
	construct, ok := constructors[name]
	if !ok {
		return nil, errors.Errorf("make: unknown environment %q (have %v)",
			name, Names())
	}

	base, err := NewFixedEye(s, config, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "make: %v", name)
	}
	return construct(base)
}
