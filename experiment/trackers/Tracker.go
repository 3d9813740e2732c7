// Package trackers implements Trackers, which record data from the
// agent-environment interaction and save it after an experiment
package trackers

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	ts "github.com/samuelfneumann/moblarms/timestep"
)

// Extension is the file extension of saved data
const Extension = ".gob"

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished
type Tracker interface {
	Track(t ts.TimeStep)
	Save() error
}

// Filename returns name with Extension appended if it is missing
func Filename(name string) string {
	if strings.HasSuffix(name, Extension) {
		return name
	}
	return name + Extension
}

// save gob-encodes data to filename, creating parent directories
func save(filename string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return errors.Wrap(err, "save: could not create directory")
	}

	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "save: could not open save file")
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(data); err != nil {
		return errors.Wrapf(err, "save: could not encode %v", filename)
	}
	return file.Close()
}

// LoadData loads data saved by a Tracker into data, which must be a
// pointer to the saved type
func LoadData(filename string, data interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "loadData: could not open data file")
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(data); err != nil {
		return errors.Wrapf(err, "loadData: could not decode %v", filename)
	}
	return nil
}
