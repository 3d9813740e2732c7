package trackers

import (
	"github.com/samuelfneumann/moblarms/environment/mobl"
	ts "github.com/samuelfneumann/moblarms/timestep"
)

// StateRecord is the state of the environment after a step together with
// the step's info
type StateRecord struct {
	mobl.KinematicState
	Info ts.Info
}

// ActionRecord is an action taken in a state and the controls it produced
type ActionRecord struct {
	Step     int
	Timestep float64
	Action   []float64
	Ctrl     []float64
}

// EpisodeLogger records per-episode sequences of records and saves them
// as a gob-encoded map from episode index to records
type EpisodeLogger[T any] struct {
	filename string
	episodes map[int][]T
}

// StateLogger logs states
type StateLogger = EpisodeLogger[StateRecord]

// ActionLogger logs actions
type ActionLogger = EpisodeLogger[ActionRecord]

// NewEpisodeLogger returns a logger saving to filename, with Extension
// appended if missing
func NewEpisodeLogger[T any](filename string) *EpisodeLogger[T] {
	return &EpisodeLogger[T]{
		filename: Filename(filename),
		episodes: make(map[int][]T),
	}
}

// NewStateLogger returns a new StateLogger
func NewStateLogger(filename string) *StateLogger {
	return NewEpisodeLogger[StateRecord](filename)
}

// NewActionLogger returns a new ActionLogger
func NewActionLogger(filename string) *ActionLogger {
	return NewEpisodeLogger[ActionRecord](filename)
}

// Log appends a record to an episode
func (l *EpisodeLogger[T]) Log(episode int, record T) {
	l.episodes[episode] = append(l.episodes[episode], record)
}

// Episode returns the records of an episode
func (l *EpisodeLogger[T]) Episode(episode int) []T {
	return l.episodes[episode]
}

// Filename returns the file the logger saves to
func (l *EpisodeLogger[T]) Filename() string {
	return l.filename
}

// Save writes all episodes to disk
func (l *EpisodeLogger[T]) Save() error {
	return save(l.filename, l.episodes)
}

// LoadEpisodes loads the episodes saved by an EpisodeLogger
func LoadEpisodes[T any](filename string) (map[int][]T, error) {
	var episodes map[int][]T
	if err := LoadData(filename, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}
