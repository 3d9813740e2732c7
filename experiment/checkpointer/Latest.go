// Package checkpointer finds the checkpoints of a training run. Runs save
// checkpoints as rl_model_<steps>_steps files in one directory; the latest
// is the last under natural ordering.
package checkpointer

import (
	"os"
	"path/filepath"
	"sort"
	"unicode"

	"github.com/pkg/errors"
)

// ErrNoCheckpoints is returned when a checkpoint directory holds no files
var ErrNoCheckpoints = errors.New("no checkpoints")

// Latest returns the path of the last file in dir under natural ordering,
// so that rl_model_1000_steps sorts after rl_model_200_steps.
// Subdirectories and hidden files are ignored.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(err, "latest: could not read checkpoint "+
			"directory")
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return "", errors.Wrapf(ErrNoCheckpoints, "latest: %v", dir)
	}

	NaturalSort(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

// NaturalSort sorts strings in place, comparing runs of digits by their
// numeric value
func NaturalSort(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return NaturalLess(names[i], names[j])
	})
}

// NaturalLess reports whether a sorts before b when runs of digits are
// compared by numeric value
func NaturalLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			ea, eb := digitsEnd(ra, i), digitsEnd(rb, j)
			na, nb := trimZeros(ra[i:ea]), trimZeros(rb[j:eb])
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if s, t := string(na), string(nb); s != t {
				return s < t
			}
			// Equal values, fewer leading zeros first
			if ea-i != eb-j {
				return ea-i < eb-j
			}
			i, j = ea, eb
			continue
		}

		if ra[i] != rb[j] {
			return ra[i] < rb[j]
		}
		i++
		j++
	}
	return len(ra)-i < len(rb)-j
}

func digitsEnd(r []rune, i int) int {
	for i < len(r) && unicode.IsDigit(r[i]) {
		i++
	}
	return i
}

func trimZeros(r []rune) []rune {
	for len(r) > 1 && r[0] == '0' {
		r = r[1:]
	}
	return r
}
