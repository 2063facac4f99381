package state

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"shuffler/internal/fileutil"
)

var (
	// ErrNotFound is returned by Load when no state file exists.
	ErrNotFound = errors.New("state file not found")
	// ErrMalformed is returned when a state file exists but cannot be used.
	ErrMalformed = errors.New("state file malformed")
	// ErrIO marks read or write failures.
	ErrIO = errors.New("state io error")
)

// State is the durable record of the shuffle seed and the next cursor position.
type State struct {
	Seed  uint64
	Index uint64
}

const (
	sectionName = "general"
	seedKey     = "seed"
	indexKey    = "index"
)

// Fresh returns a state with a newly generated seed and cursor 0.
func Fresh() State {
	return State{Seed: rand.Uint64()}
}

// Load reads the state at path.
func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return State{}, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	return Decode(data)
}

// LoadOrFresh loads the state at path, falling back to Fresh when the file
// does not exist. fresh reports which branch was taken.
func LoadOrFresh(path string) (st State, fresh bool, err error) {
	st, err = Load(path)
	if errors.Is(err, ErrNotFound) {
		return Fresh(), true, nil
	}
	return st, false, err
}

// Decode parses a state document. Both keys must be present in [general]
// as unsigned decimals; surrounding quotes are tolerated.
func Decode(data []byte) (State, error) {
	file, err := ini.Load(data)
	if err != nil {
		return State{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	sec, err := file.GetSection(sectionName)
	if err != nil {
		return State{}, fmt.Errorf("%w: missing [%s] section", ErrMalformed, sectionName)
	}
	seed, err := decimalKey(sec, seedKey)
	if err != nil {
		return State{}, err
	}
	index, err := decimalKey(sec, indexKey)
	if err != nil {
		return State{}, err
	}
	return State{Seed: seed, Index: index}, nil
}

func decimalKey(sec *ini.Section, name string) (uint64, error) {
	if !sec.HasKey(name) {
		return 0, fmt.Errorf("%w: missing %s.%s", ErrMalformed, sectionName, name)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(sec.Key(name).String()), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s.%s: %w", ErrMalformed, sectionName, name, err)
	}
	return v, nil
}

// Encode renders st as a state document with bare decimal values.
func Encode(st State) ([]byte, error) {
	file := ini.Empty()
	sec, err := file.NewSection(sectionName)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	if _, err := sec.NewKey(seedKey, strconv.FormatUint(st.Seed, 10)); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	if _, err := sec.NewKey(indexKey, strconv.FormatUint(st.Index, 10)); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// Save atomically replaces the state file at path.
func Save(path string, st State) error {
	data, err := Encode(st)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}
	return nil
}
