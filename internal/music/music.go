// Package music holds the background track catalog and picks tracks by mood.
package music

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"shortreel/internal/services"
	"shortreel/internal/shorts"
)

//go:embed catalog.toml
var defaultCatalog []byte

// Catalog is an immutable list of tracks.
type Catalog struct {
	tracks []shorts.MusicTrack
}

type catalogFile struct {
	Tracks []shorts.MusicTrack `toml:"track"`
}

// DefaultCatalog parses the catalog bundled with the binary.
func DefaultCatalog() (Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// ParseCatalog decodes a TOML catalog with one [[track]] table per entry.
func ParseCatalog(data []byte) (Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return Catalog{}, fmt.Errorf("parse music catalog: %w", err)
	}
	for i, track := range file.Tracks {
		if strings.TrimSpace(track.File) == "" {
			return Catalog{}, fmt.Errorf("music catalog entry %d: file is required", i)
		}
		if track.EndSec <= track.StartSec {
			return Catalog{}, fmt.Errorf("music catalog entry %q: end must be after start", track.File)
		}
	}
	return NewCatalog(file.Tracks), nil
}

// NewCatalog copies tracks into a catalog.
func NewCatalog(tracks []shorts.MusicTrack) Catalog {
	return Catalog{tracks: slices.Clone(tracks)}
}

// Tracks returns a copy of the catalog entries.
func (c Catalog) Tracks() []shorts.MusicTrack {
	return slices.Clone(c.tracks)
}

// Moods lists the distinct moods present in the catalog, in first-seen order.
func (c Catalog) Moods() []shorts.Mood {
	var out []shorts.Mood
	for _, track := range c.tracks {
		if !slices.Contains(out, track.Mood) {
			out = append(out, track.Mood)
		}
	}
	return out
}

// VerifyFiles checks that every track file exists under dir.
func (c Catalog) VerifyFiles(dir string) error {
	for _, track := range c.tracks {
		path := filepath.Join(dir, track.File)
		info, err := os.Stat(path)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "music", "verify", fmt.Sprintf("music file not found: %s", track.File), err)
		}
		if info.IsDir() {
			return services.Wrap(services.ErrConfiguration, "music", "verify", fmt.Sprintf("music file is a directory: %s", track.File), nil)
		}
	}
	return nil
}

// Intn is the randomness the selector needs; *rand.Rand satisfies it.
type Intn interface {
	IntN(n int) int
}

// Selector picks tracks at random.
type Selector struct {
	catalog Catalog
	mu      sync.Mutex
	rnd     Intn
}

// NewSelector builds a selector over catalog.
func NewSelector(catalog Catalog, rnd Intn) *Selector {
	return &Selector{catalog: catalog, rnd: rnd}
}

// Select returns a random track with the requested mood, or any track when
// mood is empty. An empty match means the catalog does not cover an
// advertised mood, which is a configuration error.
func (s *Selector) Select(mood shorts.Mood) (shorts.MusicTrack, error) {
	candidates := s.catalog.tracks
	if mood != "" {
		candidates = nil
		for _, track := range s.catalog.tracks {
			if track.Mood == mood {
				candidates = append(candidates, track)
			}
		}
	}
	if len(candidates) == 0 {
		return shorts.MusicTrack{}, services.Wrap(services.ErrConfiguration, "music", "select", fmt.Sprintf("no music tracks for mood %q", mood), nil)
	}
	s.mu.Lock()
	idx := s.rnd.IntN(len(candidates))
	s.mu.Unlock()
	return candidates[idx], nil
}

// Moods lists the moods the selector can satisfy.
func (s *Selector) Moods() []shorts.Mood {
	return s.catalog.Moods()
}
