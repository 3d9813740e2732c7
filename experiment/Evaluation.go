// Package experiment implements the evaluation of trained policies on the
// tracking task. An Evaluation drives the target along a freshly sampled
// path each episode, steps the environment with the policy's actions,
// and optionally logs every state and action and records a
// picture-in-picture video of the episode.
package experiment

import (
	"context"
	"io"
	"math"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/moblarms/agent/policy"
	"github.com/samuelfneumann/moblarms/environment/mobl"
	"github.com/samuelfneumann/moblarms/environment/trajectory"
	"github.com/samuelfneumann/moblarms/experiment/trackers"
	ts "github.com/samuelfneumann/moblarms/timestep"
	"github.com/samuelfneumann/moblarms/utils/progressbar"
)

// TargetPlaneAlpha is the opacity of the target plane during evaluation
const TargetPlaneAlpha = 0.1

// Options configures an Evaluation
type Options struct {
	Logger      *zap.SugaredLogger
	NumEpisodes int

	// Deterministic selects the policy's mode instead of sampling
	Deterministic bool

	// Seed seeds target paths. Zero seeds from the current time.
	Seed uint64

	// Logging enables state and action logs, saved to StateLogFile and
	// ActionLogFile together with episode returns and lengths
	Logging       bool
	StateLogFile  string
	ActionLogFile string

	// Record enables recording to VideoFile. Frames default to the
	// environment's image size and are encoded at its frame rate.
	// Video, if set, receives frames instead of an encoder.
	Record      bool
	VideoFile   string
	FrameWidth  int
	FrameHeight int
	Video       FrameWriter

	// Progress receives a progress bar per episode if not nil
	Progress io.Writer
}

// Evaluation runs a policy on a tracking environment
type Evaluation struct {
	env    mobl.Env
	policy policy.Policy
	opts   Options
	logger *zap.SugaredLogger
	src    rand.Source

	states  *trackers.StateLogger
	actions *trackers.ActionLogger
	returns *trackers.Return
	lengths *trackers.EpisodeLength

	video FrameWriter
}

// NewEvaluation returns an Evaluation of pol on env. The target plane of
// env is made visible.
func NewEvaluation(env mobl.Env, pol policy.Policy,
	opts Options) (*Evaluation, error) {
	if opts.NumEpisodes < 0 {
		return nil, errors.Errorf("newEvaluation: number of episodes must "+
			"be non-negative, got %v", opts.NumEpisodes)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Logging && (opts.StateLogFile == "" || opts.ActionLogFile == "") {
		return nil, errors.New("newEvaluation: logging requires state and " +
			"action log files")
	}
	if opts.Record && opts.Video == nil && opts.VideoFile == "" {
		return nil, errors.New("newEvaluation: recording requires a video " +
			"file")
	}

	metadata := env.Base().Metadata()
	if opts.FrameWidth == 0 {
		opts.FrameWidth = metadata.ImageSize[0]
	}
	if opts.FrameHeight == 0 {
		opts.FrameHeight = metadata.ImageSize[1]
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	e := &Evaluation{
		env:    env,
		policy: pol,
		opts:   opts,
		logger: opts.Logger,
		src:    rand.NewSource(seed),
	}

	if opts.Logging {
		e.states = trackers.NewStateLogger(opts.StateLogFile)
		e.actions = trackers.NewActionLogger(opts.ActionLogFile)
		dir := filepath.Dir(opts.StateLogFile)
		e.returns = trackers.NewReturn(filepath.Join(dir, "returns"))
		e.lengths = trackers.NewEpisodeLength(filepath.Join(dir,
			"episode_lengths"))
	} else {
		e.returns = trackers.NewReturn("")
		e.lengths = trackers.NewEpisodeLength("")
	}

	env.Base().SetTargetPlaneAlpha(TargetPlaneAlpha)
	return e, nil
}

// States returns the state log, or nil if logging is disabled
func (e *Evaluation) States() *trackers.StateLogger {
	return e.states
}

// Actions returns the action log, or nil if logging is disabled
func (e *Evaluation) Actions() *trackers.ActionLogger {
	return e.actions
}

// Returns returns the return of each episode run so far
func (e *Evaluation) Returns() []float64 {
	return e.returns.Returns()
}

// Run runs all episodes and then saves logs and finishes the recording
func (e *Evaluation) Run(ctx context.Context) (err error) {
	if e.opts.Record {
		if e.video, err = e.openVideo(ctx); err != nil {
			return errors.Wrap(err, "run")
		}
		defer func() {
			err = multierr.Combine(err, errors.Wrap(e.video.Close(), "run"))
			if err == nil && e.opts.VideoFile != "" {
				e.logger.Infow("saved recording", "file", e.opts.VideoFile)
			}
		}()
	}

	for episode := 0; episode < e.opts.NumEpisodes; episode++ {
		if err := e.RunEpisode(ctx, episode); err != nil {
			return errors.Wrapf(err, "run: episode %v", episode)
		}
	}

	if e.opts.Logging {
		if err := e.save(); err != nil {
			return errors.Wrap(err, "run")
		}
	}
	return nil
}

func (e *Evaluation) openVideo(ctx context.Context) (FrameWriter, error) {
	if e.opts.Video != nil {
		return e.opts.Video, nil
	}
	fps := e.env.Base().Metadata().FramesPerSecond
	v, err := NewVideoWriter(ctx, e.opts.VideoFile, e.opts.FrameWidth,
		e.opts.FrameHeight, fps, e.logger)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Evaluation) save() error {
	for _, t := range []interface{ Save() error }{e.states, e.actions,
		e.returns, e.lengths} {
		if err := t.Save(); err != nil {
			return err
		}
	}
	e.logger.Infow("saved logs",
		"states", e.states.Filename(),
		"actions", e.actions.Filename())
	return nil
}

// pathFollower is an environment which moves the target along a given
// path as it steps
type pathFollower interface {
	SetPath(path trajectory.Path) error
}

// RunEpisode runs a single episode along a new target path. The episode
// always covers the full path; episode ends signalled by the environment
// are ignored. Environments which follow paths themselves are handed the
// path, so that each step is observed once; for others the target is
// moved and the environment observed again after each step.
func (e *Evaluation) RunEpisode(ctx context.Context, episode int) error {
	base := e.env.Base()
	path := GenerateTrajectory(e.src, e.env)

	step, err := e.env.Reset()
	if err != nil {
		return errors.Wrap(err, "runEpisode")
	}
	e.track(step)

	follower, follows := e.env.(pathFollower)
	if follows {
		err = follower.SetPath(path)
	} else {
		err = UpdateTargetLocation(e.env, path)
	}
	if err != nil {
		return errors.Wrap(err, "runEpisode")
	}
	obs, err := base.Observe()
	if err != nil {
		return errors.Wrap(err, "runEpisode")
	}

	state := base.State()
	if e.opts.Logging {
		e.states.Log(episode, trackers.StateRecord{
			KinematicState: state,
			Info:           ts.Info{"termination": false, "target_hit": false},
		})
	}
	if err := e.record(); err != nil {
		return errors.Wrap(err, "runEpisode")
	}

	var bar *progressbar.ManualProgressBar
	if e.opts.Progress != nil {
		bar = progressbar.NewManualProgressBar(e.opts.Progress, "episode",
			40, path.Len()-1)
	}

	var (
		policyState interface{}
		action      *mat.VecDense
		dist        float64
	)
	for i := 0; i < path.Len()-1; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "runEpisode")
		}

		action, policyState, err = e.policy.Predict(obs, policyState,
			e.opts.Deterministic)
		if err != nil {
			return errors.Wrap(err, "runEpisode")
		}

		step, _, err = e.env.Step(action)
		if err != nil {
			return errors.Wrap(err, "runEpisode")
		}
		e.track(step)
		if d, ok := step.Info["dist"].(float64); ok {
			dist += d
		}

		if e.opts.Logging {
			e.actions.Log(episode, trackers.ActionRecord{
				Step:     state.Step,
				Timestep: state.Timestep,
				Action:   append([]float64(nil), action.RawVector().Data...),
				Ctrl:     base.Sim().Ctrl(),
			})

			state = base.State()
			state.Termination, _ = step.Info["termination"].(bool)
			e.states.Log(episode, trackers.StateRecord{
				KinematicState: state,
				Info:           copyInfo(step.Info),
			})
		}

		if e.opts.Record {
			tintTendons(base)
			if err := e.record(); err != nil {
				return errors.Wrap(err, "runEpisode")
			}
		}

		if follows {
			obs = step.Observation
		} else {
			if err := UpdateTargetLocation(e.env, path); err != nil {
				return errors.Wrap(err, "runEpisode")
			}
			if obs, err = base.Observe(); err != nil {
				return errors.Wrap(err, "runEpisode")
			}
		}

		if bar != nil {
			bar.Increment()
			bar.Display()
		}
	}

	returns := e.returns.Returns()
	steps := path.Len() - 1
	e.logger.Infow("evaluated episode",
		"episode", episode,
		"return", returns[len(returns)-1],
		"steps", steps,
		"meanDist", dist/math.Max(1, float64(steps)))
	return nil
}

func (e *Evaluation) track(step ts.TimeStep) {
	e.returns.Track(step)
	e.lengths.Track(step)
}

// record writes the current picture-in-picture frame if recording
func (e *Evaluation) record() error {
	if !e.opts.Record {
		return nil
	}
	frame, err := GrabPiPImage(e.env, e.opts.FrameWidth, e.opts.FrameHeight)
	if err != nil {
		return err
	}
	return e.video.WriteFrame(frame)
}

// tintTendons colours each tendon's red channel by its muscle's control
func tintTendons(base *mobl.FixedEye) {
	s := base.Sim()
	ctrl := s.Ctrl()
	for i := 0; i < s.NumTendons() && i < len(ctrl); i++ {
		rgba := s.TendonRGBA(i)
		rgba[0] = 0.3 + ctrl[i]*0.7
		s.SetTendonRGBA(i, rgba)
	}
}

func copyInfo(info ts.Info) ts.Info {
	out := make(ts.Info, len(info))
	for k, v := range info {
		out[k] = v
	}
	return out
}
