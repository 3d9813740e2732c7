// Command evaluate-tracking evaluates the latest checkpoint of a training
// run on the tracking task. It optionally records a video of each episode
// and logs every state and action.
//
//	evaluate-tracking [flags] CONFIG_FILE
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/moblarms/agent/policy"
	"github.com/samuelfneumann/moblarms/environment/envconfig"
	"github.com/samuelfneumann/moblarms/experiment"
	"github.com/samuelfneumann/moblarms/experiment/checkpointer"
)

const (
	flagCheckpoint    = "checkpoint"
	flagNumEpisodes   = "num_episodes"
	flagRecord        = "record"
	flagOutFile       = "out_file"
	flagLogging       = "logging"
	flagStateLogFile  = "state_log_file"
	flagActionLogFile = "action_log_file"
	flagSeed          = "seed"
	flagOutputDir     = "output_dir"
	flagDebug         = "debug"
)

// evalFreq is the action sample frequency evaluations run at
const evalFreq = 100

var app = &cli.App{
	Name:      "evaluate-tracking",
	Usage:     "evaluate a trained policy on the tracking task",
	ArgsUsage: "CONFIG_FILE",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  flagCheckpoint,
			Usage: "evaluate checkpoint `FILE` instead of the latest",
		},
		&cli.IntFlag{
			Name:  flagNumEpisodes,
			Value: 1,
			Usage: "number of episodes to evaluate",
		},
		&cli.BoolFlag{
			Name:  flagRecord,
			Usage: "record a video of the evaluation",
		},
		&cli.StringFlag{
			Name:  flagOutFile,
			Value: "evaluate_tracking.mp4",
			Usage: "name of the recorded video",
		},
		&cli.BoolFlag{
			Name:  flagLogging,
			Usage: "log states and actions",
		},
		&cli.StringFlag{
			Name:  flagStateLogFile,
			Value: "state_log",
			Usage: "name of the state log",
		},
		&cli.StringFlag{
			Name:  flagActionLogFile,
			Value: "action_log",
			Usage: "name of the action log",
		},
		&cli.Uint64Flag{
			Name:  flagSeed,
			Usage: "seed of target paths and the environment, 0 for time based",
		},
		&cli.StringFlag{
			Name:  flagOutputDir,
			Value: "output",
			Usage: "write results under `DIR`",
		},
		&cli.BoolFlag{
			Name:  flagDebug,
			Usage: "enable debug logging",
		},
	},
	Action: evaluate,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return logger.Sugar(), nil
	}

	logger, err := zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func evaluate(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("evaluate: expected a single CONFIG_FILE argument")
	}

	logger, err := newLogger(c.Bool(flagDebug))
	if err != nil {
		return errors.Wrap(err, "evaluate: could not create logger")
	}
	defer logger.Sync()

	rc, err := envconfig.Load(c.Args().First())
	if err != nil {
		return errors.Wrap(err, "evaluate")
	}

	checkpoint, err := findCheckpoint(rc, c.String(flagCheckpoint))
	if err != nil {
		return errors.Wrap(err, "evaluate")
	}
	logger.Infow("loading checkpoint", "file", checkpoint)

	seed := c.Uint64(flagSeed)
	pol, err := policy.LoadGaussian(checkpoint,
		rand.NewSource(sourceSeed(seed)))
	if err != nil {
		return errors.Wrap(err, "evaluate")
	}

	overrides := map[string]interface{}{
		"action_sample_freq":  evalFreq,
		"target_radius_limit": []float64{0.05, 0.05},
	}
	if seed != 0 {
		overrides["seed"] = seed
	}
	env, err := rc.Create(logger, overrides)
	if err != nil {
		return errors.Wrap(err, "evaluate")
	}
	defer env.Close()

	dir := filepath.Join(c.String(flagOutputDir), rc.EnvName, rc.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "evaluate: could not create output directory")
	}

	eval, err := experiment.NewEvaluation(env, pol, experiment.Options{
		Logger:        logger,
		NumEpisodes:   c.Int(flagNumEpisodes),
		Seed:          seed,
		Logging:       c.Bool(flagLogging),
		StateLogFile:  filepath.Join(dir, c.String(flagStateLogFile)),
		ActionLogFile: filepath.Join(dir, c.String(flagActionLogFile)),
		Record:        c.Bool(flagRecord),
		VideoFile:     filepath.Join(dir, c.String(flagOutFile)),
		Progress:      c.App.ErrWriter,
	})
	if err != nil {
		return errors.Wrap(err, "evaluate")
	}
	return errors.Wrap(eval.Run(c.Context), "evaluate")
}

// sourceSeed returns seed, or a seed from the current time if seed is 0
func sourceSeed(seed uint64) uint64 {
	if seed == 0 {
		return uint64(time.Now().UnixNano())
	}
	return seed
}

// findCheckpoint returns the path of the named checkpoint of a run, or of
// its latest checkpoint if name is empty
func findCheckpoint(rc envconfig.RunConfig, name string) (string, error) {
	dir := rc.CheckpointDir()
	if _, err := os.Stat(dir); err != nil {
		return "", errors.Wrap(err, "findCheckpoint: no checkpoint directory")
	}
	if name == "" {
		return checkpointer.Latest(dir)
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrap(err, "findCheckpoint")
	}
	return path, nil
}
