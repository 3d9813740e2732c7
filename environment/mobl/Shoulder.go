package mobl

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/moblarms/environment/sim"
	"github.com/samuelfneumann/moblarms/utils/floatutils"
)

// Errors in the model's structure
var (
	// ErrShoulderConstraint is returned when a shoulder patch is requested
	// but the model does not contain exactly one joint equality coupling
	// the axial rotation of the shoulder to the plane of elevation
	ErrShoulderConstraint = errors.New("shoulder coupling constraint not " +
		"unique")

	// ErrZeroRangeJoint is returned when an independent joint has an
	// empty range, which cannot be normalized
	ErrZeroRangeJoint = errors.New("independent joint has zero range")
)

// Names of joints used by the shoulder patches
const (
	ShoulderElevation = "shoulder_elv"
	ElevationPlane    = "elv_angle"
	ShoulderAxial     = "shoulder1_r2"
	ShoulderRotation  = "shoulder_rot"
)

// ShoulderVariant selects how the shoulder's coupling constraint is
// treated
type ShoulderVariant string

const (
	// Original leaves the model's constraint untouched
	Original ShoulderVariant = "original"

	// PatchV1 recomputes the coupling coefficient from the elevation
	PatchV1 ShoulderVariant = "patch-v1"

	// PatchV2 additionally recomputes the range of shoulder rotation
	PatchV2 ShoulderVariant = "patch-v2"
)

// ParseShoulderVariant returns the variant with the given name. The empty
// string selects Original.
func ParseShoulderVariant(name string) (ShoulderVariant, error) {
	switch v := ShoulderVariant(name); v {
	case "":
		return Original, nil
	case Original, PatchV1, PatchV2:
		return v, nil
	}
	return "", errors.Errorf("parseShoulderVariant: unknown shoulder "+
		"variant %q", name)
}

// Patched returns whether the variant modifies the model
func (v ShoulderVariant) Patched() bool {
	return v == PatchV1 || v == PatchV2
}

// ShoulderPatch couples the axial rotation of the shoulder to its
// elevation. After every control update it rewrites the linear
// coefficient of the equality constraint between shoulder1_r2 and
// elv_angle to -(π - 2·elevation)/π, and for PatchV2 shifts the range of
// shoulder rotation with the elevation plane.
type ShoulderPatch struct {
	variant  ShoulderVariant
	equality int

	elevation, plane, rotation int

	// limits bounds the recomputed range of shoulder rotation. It is the
	// model's static range of shoulder rotation, optionally narrowed.
	limits r1.Interval
}

// NewShoulderPatch resolves the coupling constraint in s. Recomputed
// ranges of shoulder rotation stay within the joint's range in s at the
// time of the call, further narrowed by limits. It returns a nil patch for
// variants which do not modify the model.
func NewShoulderPatch(s sim.Simulator, variant ShoulderVariant,
	limits r1.Interval) (*ShoulderPatch, error) {
	if !variant.Patched() {
		return nil, nil
	}

	var matches []int
	for i := 0; i < s.NumEqualities(); i++ {
		eq := s.Equality(i)
		if eq.Type != sim.EqJoint || eq.Obj1 <= 0 || eq.Obj2 <= 0 {
			continue
		}
		a, b := s.JointName(eq.Obj1), s.JointName(eq.Obj2)
		if (a == ShoulderAxial && b == ElevationPlane) ||
			(a == ElevationPlane && b == ShoulderAxial) {
			matches = append(matches, i)
		}
	}
	if len(matches) != 1 {
		return nil, errors.Wrapf(ErrShoulderConstraint, "newShoulderPatch: "+
			"found %v equalities between %v and %v", len(matches),
			ShoulderAxial, ElevationPlane)
	}

	p := &ShoulderPatch{variant: variant, equality: matches[0]}

	ids := []*int{&p.elevation, &p.plane, &p.rotation}
	for i, name := range []string{ShoulderElevation, ElevationPlane,
		ShoulderRotation} {
		id, err := s.JointID(name)
		if err != nil {
			return nil, errors.Wrap(err, "newShoulderPatch")
		}
		*ids[i] = id
	}

	static := s.JointRange(p.rotation)
	p.limits = r1.Interval{
		Min: math.Max(static.Min, limits.Min),
		Max: math.Min(static.Max, limits.Max),
	}
	if p.limits.Min > p.limits.Max {
		return nil, errors.Errorf("newShoulderPatch: limits %v do not "+
			"overlap the %v range %v", limits, ShoulderRotation, static)
	}
	return p, nil
}

// Limits returns the bounds of recomputed ranges of shoulder rotation
func (p *ShoulderPatch) Limits() r1.Interval {
	return p.limits
}

// Equality returns the index of the patched equality constraint
func (p *ShoulderPatch) Equality() int {
	return p.equality
}

// Coefficient returns the coupling coefficient for a shoulder elevation
func Coefficient(elevation float64) float64 {
	return -(math.Pi - 2*elevation) / math.Pi
}

// RotationRange returns the range of shoulder rotation for a shoulder
// elevation and elevation plane, with both bounds clipped to limits
func RotationRange(elevation, plane float64, limits r1.Interval) r1.Interval {
	shift := 2 * math.Min(elevation, math.Pi-elevation) / math.Pi * plane
	return r1.Interval{
		Min: floatutils.ClipInterval(-math.Pi/2-shift, limits),
		Max: floatutils.ClipInterval(math.Pi/9-shift, limits),
	}
}

// Apply updates the model from the current joint positions. It must be
// called after new controls are set and before the simulation is stepped.
func (p *ShoulderPatch) Apply(s sim.Simulator) {
	elevation := s.QPos(p.elevation)
	s.SetEqualityData(p.equality, 1, Coefficient(elevation))

	if p.variant == PatchV2 {
		s.SetJointRange(p.rotation,
			RotationRange(elevation, s.QPos(p.plane), p.limits))
	}
}
