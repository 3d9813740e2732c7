package mobl

import (
	"math"

	"github.com/pkg/errors"
)

// RewardFunc computes a reward from the distance between the fingertip
// and the target
type RewardFunc func(dist float64) float64

// ExpReward is (exp(-10·dist) - 1) / 10, which is zero at the target and
// approaches -0.1 far from it
func ExpReward(dist float64) float64 {
	return (math.Exp(-10*dist) - 1) / 10
}

// NegativeDistance is the negated distance
func NegativeDistance(dist float64) float64 {
	return -dist
}

// RewardFuncByName returns the named reward function
func RewardFuncByName(name string) (RewardFunc, error) {
	switch name {
	case "exp":
		return ExpReward, nil
	case "negative_distance":
		return NegativeDistance, nil
	}
	return nil, errors.Errorf("rewardFuncByName: unknown reward function "+
		"%q", name)
}
