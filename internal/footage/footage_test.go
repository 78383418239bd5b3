package footage_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"shortreel/internal/footage"
	"shortreel/internal/logging"
	"shortreel/internal/services"
	"shortreel/internal/shorts"
)

// identityRand keeps slice order and always picks index 0.
type identityRand struct{}

func (identityRand) IntN(int) int                 { return 0 }
func (identityRand) Shuffle(int, func(i, j int)) {}

type call struct {
	videos []footage.Video
	err    error
}

// scriptedProvider answers calls in order; once the script runs out it
// returns failing[term] or byTerm results.
type scriptedProvider struct {
	mu      sync.Mutex
	script  []call
	failing map[string]error
	byTerm  map[string][]footage.Video
	terms   []string
}

func (p *scriptedProvider) Search(_ context.Context, term string, _ shorts.Orientation) ([]footage.Video, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terms = append(p.terms, term)
	if len(p.script) > 0 {
		next := p.script[0]
		p.script = p.script[1:]
		return next.videos, next.err
	}
	if err := p.failing[term]; err != nil {
		return nil, err
	}
	return p.byTerm[term], nil
}

func hdVideo(id string, duration, fps float64) footage.Video {
	return footage.Video{
		ID:              id,
		DurationSeconds: duration,
		FPS:             fps,
		Encodings: []footage.Encoding{
			{Quality: "sd", Width: 540, Height: 960, URL: "https://cdn/" + id + "-sd.mp4"},
			{Quality: footage.QualityHigh, Width: 1080, Height: 1920, URL: "https://cdn/" + id + ".mp4"},
		},
	}
}

func newMatcher(p footage.Provider, opts footage.Options) *footage.Matcher {
	return footage.NewMatcher(p, opts, identityRand{}, logging.NewNop())
}

func TestNormalizedDuration(t *testing.T) {
	if got := footage.NormalizedDuration(footage.Video{DurationSeconds: 10, FPS: 24}, 25); got != 9.6 {
		t.Fatalf("24fps duration = %v, want 9.6", got)
	}
	if got := footage.NormalizedDuration(footage.Video{DurationSeconds: 10, FPS: 30}, 25); got != 10 {
		t.Fatalf("30fps duration = %v, want 10", got)
	}
}

func TestFindAcceptsLowFrameRateClipAboveThreshold(t *testing.T) {
	provider := &scriptedProvider{byTerm: map[string][]footage.Video{"dog": {hdVideo("42", 10, 24)}}}
	m := newMatcher(provider, footage.DefaultOptions())

	asset, err := m.Find(context.Background(), footage.Request{
		Terms:       []string{"dog"},
		MinDuration: 2.4,
		Orientation: shorts.OrientationPortrait,
	})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if asset.ID != "42" || asset.URL != "https://cdn/42.mp4" || asset.Width != 1080 || asset.Height != 1920 {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestFindRejectsShortNormalizedDuration(t *testing.T) {
	// 6s at 20fps normalizes to 4.8s, below 2.4+3.
	provider := &scriptedProvider{byTerm: map[string][]footage.Video{"dog": {hdVideo("1", 6, 20)}}}
	opts := footage.DefaultOptions()
	opts.Jokers = nil
	m := newMatcher(provider, opts)

	_, err := m.Find(context.Background(), footage.Request{Terms: []string{"dog"}, MinDuration: 2.4, Orientation: shorts.OrientationPortrait})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindSkipsExcludedAndWrongSizeClips(t *testing.T) {
	wrongSize := hdVideo("2", 30, 30)
	wrongSize.Encodings = []footage.Encoding{{Quality: footage.QualityHigh, Width: 1920, Height: 1080, URL: "x"}}
	noEncodings := footage.Video{ID: "3", DurationSeconds: 30, FPS: 30}
	provider := &scriptedProvider{byTerm: map[string][]footage.Video{
		"city": {hdVideo("1", 30, 30), wrongSize, noEncodings, hdVideo("4", 30, 30)},
	}}
	m := newMatcher(provider, footage.DefaultOptions())

	asset, err := m.Find(context.Background(), footage.Request{
		Terms:       []string{"city"},
		MinDuration: 5,
		Exclude:     map[string]struct{}{"1": {}},
		Orientation: shorts.OrientationPortrait,
	})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if asset.ID != "4" {
		t.Fatalf("expected the only eligible clip, got %q", asset.ID)
	}
}

func TestFindFallsBackToJokerTerms(t *testing.T) {
	provider := &scriptedProvider{byTerm: map[string][]footage.Video{"ocean": {hdVideo("9", 20, 30)}}}
	opts := footage.DefaultOptions()
	opts.Jokers = []string{"ocean"}
	m := newMatcher(provider, opts)

	asset, err := m.Find(context.Background(), footage.Request{Terms: []string{"obscure"}, MinDuration: 1, Orientation: shorts.OrientationPortrait})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if asset.ID != "9" {
		t.Fatalf("expected joker clip, got %q", asset.ID)
	}
	if len(provider.terms) != 2 || provider.terms[0] != "obscure" || provider.terms[1] != "ocean" {
		t.Fatalf("expected scene terms before jokers, got %v", provider.terms)
	}
}

func TestFindRetriesWholeListAfterTimeouts(t *testing.T) {
	provider := &scriptedProvider{
		script: []call{
			{err: context.DeadlineExceeded},
			{err: services.Wrap(services.ErrTimeout, "pexels", "search", "slow", nil)},
		},
		byTerm: map[string][]footage.Video{"dog": {hdVideo("7", 15, 30)}},
	}
	opts := footage.DefaultOptions()
	opts.MaxRetries = 3
	m := newMatcher(provider, opts)

	asset, err := m.Find(context.Background(), footage.Request{Terms: []string{"dog"}, MinDuration: 2, Orientation: shorts.OrientationPortrait})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if asset.ID != "7" {
		t.Fatalf("unexpected asset %q", asset.ID)
	}
	if len(provider.terms) != 3 {
		t.Fatalf("expected three queries (two timeouts then success), got %v", provider.terms)
	}
	for _, term := range provider.terms {
		if term != "dog" {
			t.Fatalf("each retry must restart from the first term, got %v", provider.terms)
		}
	}
}

func TestFindExhaustsRetries(t *testing.T) {
	script := make([]call, 10)
	for i := range script {
		script[i] = call{err: context.DeadlineExceeded}
	}
	provider := &scriptedProvider{script: script}
	opts := footage.DefaultOptions()
	opts.MaxRetries = 2
	m := newMatcher(provider, opts)

	_, err := m.Find(context.Background(), footage.Request{Terms: []string{"dog"}, MinDuration: 2, Orientation: shorts.OrientationPortrait})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout failure, got %v", err)
	}
	if len(provider.terms) != 3 {
		t.Fatalf("expected 1 attempt + 2 retries, got %d queries", len(provider.terms))
	}
}

func TestFindAbortsOnAuthorizationFailure(t *testing.T) {
	provider := &scriptedProvider{script: []call{{err: services.Wrap(services.ErrConfiguration, "pexels", "search", "invalid api key", nil)}}}
	m := newMatcher(provider, footage.DefaultOptions())

	_, err := m.Find(context.Background(), footage.Request{Terms: []string{"dog", "cat"}, MinDuration: 2, Orientation: shorts.OrientationPortrait})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(provider.terms) != 1 {
		t.Fatalf("expected search to stop after auth failure, got %v", provider.terms)
	}
}

func TestFindContinuesPastOtherErrors(t *testing.T) {
	provider := &scriptedProvider{
		script: []call{{err: errors.New("decode failure")}},
		byTerm: map[string][]footage.Video{"cat": {hdVideo("5", 20, 30)}},
	}
	m := newMatcher(provider, footage.DefaultOptions())

	asset, err := m.Find(context.Background(), footage.Request{Terms: []string{"dog", "cat"}, MinDuration: 2, Orientation: shorts.OrientationPortrait})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if asset.ID != "5" {
		t.Fatalf("unexpected asset %q", asset.ID)
	}
}

func TestFindSkipsTermOnServerError(t *testing.T) {
	provider := &scriptedProvider{
		failing: map[string]error{"dog": services.Wrap(services.ErrTransient, "pexels", "search", "status 500", nil)},
		byTerm:  map[string][]footage.Video{"nature": {hdVideo("30", 30, 30)}},
	}
	opts := footage.DefaultOptions()
	opts.Jokers = []string{"nature", "globe"}
	opts.MaxRetries = 3
	m := newMatcher(provider, opts)

	asset, err := m.Find(context.Background(), footage.Request{Terms: []string{"dog"}, MinDuration: 2, Orientation: shorts.OrientationPortrait})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if asset.ID != "30" {
		t.Fatalf("expected joker clip, got %q", asset.ID)
	}
	if len(provider.terms) != 2 || provider.terms[0] != "dog" || provider.terms[1] != "nature" {
		t.Fatalf("expected dog once then the first joker, got %v", provider.terms)
	}
}

func TestFindDoesNotRetryListOnServerErrors(t *testing.T) {
	unavailable := services.Wrap(services.ErrTransient, "pexels", "search", "status 503", nil)
	provider := &scriptedProvider{failing: map[string]error{"dog": unavailable, "cat": unavailable}}
	opts := footage.DefaultOptions()
	opts.Jokers = nil
	opts.MaxRetries = 3
	m := newMatcher(provider, opts)

	_, err := m.Find(context.Background(), footage.Request{Terms: []string{"dog", "cat"}, MinDuration: 2, Orientation: shorts.OrientationPortrait})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if errors.Is(err, services.ErrTimeout) {
		t.Fatalf("server errors must not be reported as timeouts: %v", err)
	}
	if len(provider.terms) != 2 {
		t.Fatalf("expected a single pass over both terms, got %v", provider.terms)
	}
}

type slowProvider struct{}

func (slowProvider) Search(ctx context.Context, _ string, _ shorts.Orientation) ([]footage.Video, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestFindAppliesPerQueryTimeout(t *testing.T) {
	opts := footage.DefaultOptions()
	opts.Timeout = 10 * time.Millisecond
	opts.MaxRetries = 1
	m := newMatcher(slowProvider{}, opts)

	start := time.Now()
	_, err := m.Find(context.Background(), footage.Request{Terms: []string{"dog"}, MinDuration: 2, Orientation: shorts.OrientationPortrait})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("per-query timeout was not applied")
	}
}

func TestFindNeverRepeatsAssetsWithinJob(t *testing.T) {
	var videos []footage.Video
	for i := range 6 {
		videos = append(videos, hdVideo(fmt.Sprint(i), 30, 30))
	}
	provider := &scriptedProvider{byTerm: map[string][]footage.Video{"sky": videos}}
	m := footage.NewMatcher(provider, footage.DefaultOptions(), rand.New(rand.NewPCG(7, 11)), logging.NewNop())

	used := map[string]struct{}{}
	for scene := range 6 {
		asset, err := m.Find(context.Background(), footage.Request{Terms: []string{"sky"}, MinDuration: 3, Exclude: used, Orientation: shorts.OrientationPortrait})
		if err != nil {
			t.Fatalf("scene %d: Find returned error: %v", scene, err)
		}
		if _, dup := used[asset.ID]; dup {
			t.Fatalf("scene %d: asset %q reused", scene, asset.ID)
		}
		used[asset.ID] = struct{}{}
	}
}
