// Package playlist reads the raw track list and holds the shuffled play order.
//
// A Playlist is immutable once built. It does not own the cursor: callers keep
// the cursor in the persisted state and pass it to Advance, which reads the
// track at that position and moves the cursor forward in place.
package playlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"shuffler/internal/shuffle"
)

var (
	// ErrIO marks failures reading the raw track list.
	ErrIO = errors.New("track list io error")
	// ErrEmpty is returned when the track list holds no usable tracks.
	ErrEmpty = errors.New("track list is empty")
	// ErrExhausted is returned by Advance once the cursor reaches the end.
	ErrExhausted = errors.New("playlist exhausted")
)

// Track is an opaque path handed verbatim to the external player.
type Track string

// Playlist is the shuffled, immutable play order.
type Playlist struct {
	tracks []Track
}

// ReadTracks parses a newline-delimited track list. Blank lines are dropped
// and a trailing carriage return is stripped; nothing else is interpreted.
func ReadTracks(r io.Reader) ([]Track, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var tracks []Track
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tracks = append(tracks, Track(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return tracks, nil
}

// ReadTrackFile opens path and parses it with ReadTracks.
func ReadTrackFile(path string) ([]Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer file.Close()
	return ReadTracks(file)
}

// Build shuffles raw once with seed.
func Build(raw []Track, seed uint64) (*Playlist, error) {
	if len(raw) == 0 {
		return nil, ErrEmpty
	}
	return &Playlist{tracks: shuffle.Permute(raw, seed)}, nil
}

// Load reads the track list at path and builds the playlist for seed.
func Load(path string, seed uint64) (*Playlist, error) {
	raw, err := ReadTrackFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Build(raw, seed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Advance returns the track at *cursor and increments the cursor.
// The cursor is left unchanged when the playlist is exhausted.
func (p *Playlist) Advance(cursor *uint64) (Track, error) {
	if *cursor >= uint64(len(p.tracks)) {
		return "", fmt.Errorf("%w: cursor %d of %d", ErrExhausted, *cursor, len(p.tracks))
	}
	track := p.tracks[*cursor]
	*cursor++
	return track, nil
}

// At returns the track at index i, if any.
func (p *Playlist) At(i uint64) (Track, bool) {
	if i >= uint64(len(p.tracks)) {
		return "", false
	}
	return p.tracks[i], true
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Pick is a track chosen for playback together with where it came from.
type Pick struct {
	Track Track
	// Cursor is the position Track was read from; the persisted cursor is Cursor+1.
	Cursor uint64
	Seed   uint64
}
