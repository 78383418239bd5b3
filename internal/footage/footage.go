// Package footage selects stock video clips for scenes from an external
// provider, retrying the whole term list when the provider times out.
package footage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"shortreel/internal/logging"
	"shortreel/internal/services"
	"shortreel/internal/shorts"
)

// QualityHigh is the encoding tier footage must offer at the exact frame size.
const QualityHigh = "hd"

// Encoding is one downloadable rendition of a provider video.
type Encoding struct {
	Quality string
	Width   int
	Height  int
	URL     string
}

// Video is a provider search result.
type Video struct {
	ID              string
	DurationSeconds float64
	FPS             float64
	Encodings       []Encoding
}

// Provider searches a stock footage catalog. Implementations report timeouts
// with context.DeadlineExceeded or services.ErrTimeout, server-side failures
// with services.ErrTransient, and rejected credentials with
// services.ErrConfiguration.
type Provider interface {
	Search(ctx context.Context, term string, orientation shorts.Orientation) ([]Video, error)
}

// Rand is the randomness the matcher needs; *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Options tunes matching.
type Options struct {
	// Timeout bounds each provider query.
	Timeout time.Duration
	// MaxRetries is how many times the full term list is retried after a timeout.
	MaxRetries int
	// Jokers are generic fallback terms appended after the scene's own terms.
	Jokers []string
	// BufferSeconds is added to the requested duration.
	BufferSeconds float64
	// ReferenceFPS is the rate below which stated durations are scaled down.
	ReferenceFPS float64
}

// DefaultOptions returns the production matching policy.
func DefaultOptions() Options {
	return Options{
		Timeout:       5 * time.Second,
		MaxRetries:    3,
		Jokers:        []string{"nature", "globe", "space", "ocean"},
		BufferSeconds: 3,
		ReferenceFPS:  25,
	}
}

// Request describes the clip a scene needs.
type Request struct {
	Terms       []string
	MinDuration float64
	// Exclude holds asset ids already used by earlier scenes of the job.
	Exclude     map[string]struct{}
	Orientation shorts.Orientation
}

// Matcher finds footage for scenes.
type Matcher struct {
	provider Provider
	opts     Options
	logger   *slog.Logger

	mu  sync.Mutex
	rnd Rand
}

// NewMatcher wires a matcher around provider.
func NewMatcher(provider Provider, opts Options, rnd Rand, logger *slog.Logger) *Matcher {
	return &Matcher{
		provider: provider,
		opts:     opts,
		rnd:      rnd,
		logger:   logging.NewComponentLogger(logger, "footage"),
	}
}

// NormalizedDuration scales the stated duration of clips recorded below the
// reference frame rate.
func NormalizedDuration(v Video, referenceFPS float64) float64 {
	if v.FPS > 0 && v.FPS < referenceFPS {
		return v.DurationSeconds * (v.FPS / referenceFPS)
	}
	return v.DurationSeconds
}

// Find returns a clip for req. It walks the shuffled scene terms followed by
// the shuffled joker terms, continuing past terms without a usable clip. A
// provider timeout restarts the walk from the top, at most MaxRetries times.
func (m *Matcher) Find(ctx context.Context, req Request) (shorts.FootageAsset, error) {
	logger := logging.WithContext(ctx, m.logger)
	var lastErr error
	for attempt := 0; attempt <= m.opts.MaxRetries; attempt++ {
		asset, err := m.walk(ctx, req)
		if err == nil {
			return asset, nil
		}
		if !isSearchTimeout(err) {
			return shorts.FootageAsset{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return shorts.FootageAsset{}, ctxErr
		}
		lastErr = err
		logging.WarnWithContext(logger, "footage search timed out; restarting term list", "footage_search_retry",
			logging.Int("attempt", attempt+1),
			logging.Int("max_retries", m.opts.MaxRetries),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network connectivity to the footage provider"),
			logging.String(logging.FieldImpact, "scene footage search restarted"),
		)
	}
	return shorts.FootageAsset{}, services.Wrap(services.ErrTimeout, "footage", "search",
		fmt.Sprintf("provider timed out %d times", m.opts.MaxRetries+1), lastErr)
}

// isSearchTimeout reports errors that restart the term list. Other provider
// failures, transient ones included, only skip the current term.
func isSearchTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, services.ErrTimeout)
}

// walk performs one pass over the combined term list.
func (m *Matcher) walk(ctx context.Context, req Request) (shorts.FootageAsset, error) {
	logger := logging.WithContext(ctx, m.logger)
	terms := m.termOrder(req.Terms)
	width, height := req.Orientation.Dimensions()
	minDuration := req.MinDuration + m.opts.BufferSeconds

	for _, term := range terms {
		queryCtx := ctx
		var cancel context.CancelFunc
		if m.opts.Timeout > 0 {
			queryCtx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		}
		videos, err := m.provider.Search(queryCtx, term, req.Orientation)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			if isSearchTimeout(err) || errors.Is(err, services.ErrConfiguration) || ctx.Err() != nil {
				return shorts.FootageAsset{}, err
			}
			logging.WarnWithContext(logger, "footage search failed; trying next term", "footage_search_failed",
				logging.String("term", term),
				logging.Error(err),
				logging.String(logging.FieldImpact, "term skipped"),
			)
			continue
		}

		candidates := m.filter(videos, req.Exclude, minDuration, width, height)
		if len(candidates) == 0 {
			logger.Debug("no usable footage for term",
				logging.String("term", term),
				logging.Int("results", len(videos)),
			)
			continue
		}
		chosen := candidates[m.intn(len(candidates))]
		logger.Debug("footage matched",
			logging.String(logging.FieldEventType, "footage_match"),
			logging.String("term", term),
			logging.String("footage_id", chosen.ID),
			logging.Int("candidates", len(candidates)),
		)
		return chosen, nil
	}
	return shorts.FootageAsset{}, services.Wrap(services.ErrNotFound, "footage", "search",
		fmt.Sprintf("no footage found for %d terms", len(terms)), nil)
}

func (m *Matcher) filter(videos []Video, exclude map[string]struct{}, minDuration float64, width, height int) []shorts.FootageAsset {
	var out []shorts.FootageAsset
	for _, v := range videos {
		if _, used := exclude[v.ID]; used {
			continue
		}
		if len(v.Encodings) == 0 {
			continue
		}
		if NormalizedDuration(v, m.opts.ReferenceFPS) < minDuration {
			continue
		}
		idx := slices.IndexFunc(v.Encodings, func(e Encoding) bool {
			return e.Quality == QualityHigh && e.Width == width && e.Height == height
		})
		if idx < 0 {
			continue
		}
		enc := v.Encodings[idx]
		out = append(out, shorts.FootageAsset{ID: v.ID, URL: enc.URL, Width: enc.Width, Height: enc.Height})
	}
	return out
}

func (m *Matcher) termOrder(terms []string) []string {
	own := make([]string, 0, len(terms))
	for _, term := range terms {
		if term = strings.TrimSpace(term); term != "" {
			own = append(own, term)
		}
	}
	jokers := slices.Clone(m.opts.Jokers)
	m.mu.Lock()
	m.rnd.Shuffle(len(own), func(i, j int) { own[i], own[j] = own[j], own[i] })
	m.rnd.Shuffle(len(jokers), func(i, j int) { jokers[i], jokers[j] = jokers[j], jokers[i] })
	m.mu.Unlock()
	return append(own, jokers...)
}

func (m *Matcher) intn(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rnd.IntN(n)
}
