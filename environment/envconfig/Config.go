// Package envconfig loads the configuration of a training run and
// creates the environment it was trained on. A run configuration is a
// JSON object holding the registered environment name, the run name and
// the keyword arguments the environment was created with:
//
//	{
//		"env_name": "mobl-arms-tracking-v0",
//		"name": "run-1",
//		"env_kwargs": {"action_sample_freq": 20, "shoulder_variant": "patch-v1"}
//	}
//
// Keyword arguments are the json field names of mobl.Config; arguments not
// given keep their defaults from mobl.DefaultConfig.
package envconfig

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/samuelfneumann/moblarms/environment/mobl"
	"github.com/samuelfneumann/moblarms/environment/sim"

	// Register the default backend
	_ "github.com/samuelfneumann/moblarms/environment/sim/kinematic"
)

// ErrMissingKey is returned when a run configuration lacks a required key
var ErrMissingKey = errors.New("missing key")

// CheckpointDir is the directory, relative to a run configuration, that
// holds the run's checkpoints
const CheckpointDir = "checkpoints"

var requiredKeys = []string{"env_name", "name", "env_kwargs"}

// RunConfig is the configuration of a single training run
type RunConfig struct {
	EnvName   string                 `json:"env_name"`
	Name      string                 `json:"name"`
	EnvKwargs map[string]interface{} `json:"env_kwargs"`

	// Dir is the directory the configuration was loaded from
	Dir string `json:"-"`
}

// Load reads a run configuration from a JSON file
func Load(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, errors.Wrap(err, "load: could not read run config")
	}

	rc, err := Parse(data)
	if err != nil {
		return RunConfig{}, errors.Wrapf(err, "load: %v", path)
	}
	rc.Dir = filepath.Dir(path)
	return rc, nil
}

// Parse decodes a JSON run configuration. All of env_name, name and
// env_kwargs must be present.
func Parse(data []byte) (RunConfig, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return RunConfig{}, errors.Wrap(err, "parse: invalid JSON")
	}
	for _, key := range requiredKeys {
		if raw, ok := keys[key]; !ok || string(raw) == "null" {
			return RunConfig{}, errors.Wrapf(ErrMissingKey, "parse: %q", key)
		}
	}

	var rc RunConfig
	if err := json.Unmarshal(data, &rc); err != nil {
		return RunConfig{}, errors.Wrap(err, "parse: invalid run config")
	}
	return rc, nil
}

// CheckpointDir returns the directory holding the run's checkpoints
func (rc RunConfig) CheckpointDir() string {
	return filepath.Join(rc.Dir, CheckpointDir)
}

// DecodeKwargs decodes environment keyword arguments into a mobl.Config,
// starting from the default configuration. Unknown keywords are an error.
func DecodeKwargs(kwargs map[string]interface{}) (mobl.Config, error) {
	config := mobl.DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
		Result:           &config,
	})
	if err != nil {
		return mobl.Config{}, errors.Wrap(err, "decodeKwargs")
	}
	if err := decoder.Decode(kwargs); err != nil {
		return mobl.Config{}, errors.Wrap(err, "decodeKwargs")
	}
	return config, nil
}

// Kwargs returns the run's keyword arguments with overrides applied on
// top. The run configuration is not modified.
func (rc RunConfig) Kwargs(overrides map[string]interface{}) map[string]interface{} {
	kwargs := make(map[string]interface{}, len(rc.EnvKwargs)+len(overrides))
	for k, v := range rc.EnvKwargs {
		kwargs[k] = v
	}
	for k, v := range overrides {
		kwargs[k] = v
	}
	return kwargs
}

// Create loads the model with the configured backend and creates the
// run's environment. Overrides replace keyword arguments of the run.
func (rc RunConfig) Create(logger *zap.SugaredLogger,
	overrides map[string]interface{}, opts ...mobl.Option) (mobl.Env, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	config, err := DecodeKwargs(rc.Kwargs(overrides))
	if err != nil {
		return nil, errors.Wrap(err, "create")
	}

	xml := config.XMLFile
	if xml != "" && !filepath.IsAbs(xml) && rc.Dir != "" {
		if _, err := os.Stat(filepath.Join(rc.Dir, xml)); err == nil {
			xml = filepath.Join(rc.Dir, xml)
		}
	}

	s, err := sim.Load(config.Backend, xml, logger)
	if err != nil {
		return nil, errors.Wrap(err, "create")
	}

	logger.Infow("creating environment",
		"env", rc.EnvName,
		"run", rc.Name,
		"backend", config.Backend,
		"overrides", overrides)

	opts = append([]mobl.Option{mobl.WithLogger(logger)}, opts...)
	env, err := mobl.Make(rc.EnvName, s, config, opts...)
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "create")
	}
	return env, nil
}
