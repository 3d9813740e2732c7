package checkpointer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestNaturalSort(t *testing.T) {
	names := []string{
		"rl_model_1000_steps",
		"rl_model_200_steps",
		"rl_model_20_steps",
		"rl_model_3000_steps.zip",
		"rl_model_3000_steps",
		"model_9",
		"rl_model_020_steps",
	}
	NaturalSort(names)
	test.That(t, names, test.ShouldResemble, []string{
		"model_9",
		"rl_model_20_steps",
		"rl_model_020_steps",
		"rl_model_200_steps",
		"rl_model_1000_steps",
		"rl_model_3000_steps",
		"rl_model_3000_steps.zip",
	})

	test.That(t, NaturalLess("a2", "a10"), test.ShouldBeTrue)
	test.That(t, NaturalLess("a10", "a2"), test.ShouldBeFalse)
	test.That(t, NaturalLess("a", "a"), test.ShouldBeFalse)
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()

	_, err := Latest(filepath.Join(dir, "missing"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Latest(dir)
	test.That(t, errors.Is(err, ErrNoCheckpoints), test.ShouldBeTrue)

	for _, name := range []string{"rl_model_900_steps",
		"rl_model_10000_steps", "rl_model_2000_steps", ".DS_Store"} {
		test.That(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600),
			test.ShouldBeNil)
	}
	test.That(t, os.Mkdir(filepath.Join(dir, "zzz"), 0o700), test.ShouldBeNil)

	latest, err := Latest(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, latest, test.ShouldEqual,
		filepath.Join(dir, "rl_model_10000_steps"))
}
