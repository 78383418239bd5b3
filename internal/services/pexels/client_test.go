package pexels_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shortreel/internal/services"
	"shortreel/internal/services/pexels"
	"shortreel/internal/shorts"
)

func TestSearchParsesVideos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "key-1" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		q := r.URL.Query()
		if q.Get("query") != "dog park" || q.Get("orientation") != "portrait" || q.Get("size") != "medium" || q.Get("per_page") != "80" {
			t.Errorf("unexpected query %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"videos":[
			{"id":42,"duration":10,"video_files":[
				{"quality":"hd","width":1080,"height":1920,"fps":24,"link":"https://cdn/42.mp4"},
				{"quality":"sd","width":540,"height":960,"fps":24,"link":"https://cdn/42-sd.mp4"}
			]},
			{"id":7,"duration":5,"video_files":[{"quality":"hd","width":1080,"height":1920,"fps":null,"link":"https://cdn/7.mp4"}]}
		]}`))
	}))
	defer server.Close()

	client := pexels.New(server.URL, "key-1", 0, server.Client())
	videos, err := client.Search(context.Background(), "dog park", shorts.OrientationPortrait)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected two videos, got %d", len(videos))
	}
	first := videos[0]
	if first.ID != "42" || first.DurationSeconds != 10 || first.FPS != 24 || len(first.Encodings) != 2 {
		t.Fatalf("unexpected first video %+v", first)
	}
	if first.Encodings[0].URL != "https://cdn/42.mp4" || first.Encodings[0].Quality != "hd" {
		t.Fatalf("unexpected encoding %+v", first.Encodings[0])
	}
	if videos[1].FPS != 0 {
		t.Fatalf("expected missing fps to stay zero, got %v", videos[1].FPS)
	}
}

func TestSearchClassifiesStatusCodes(t *testing.T) {
	tests := []struct {
		status int
		marker error
	}{
		{http.StatusUnauthorized, services.ErrConfiguration},
		{http.StatusTooManyRequests, services.ErrTransient},
		{http.StatusBadGateway, services.ErrTransient},
		{http.StatusBadRequest, services.ErrExternalTool},
	}
	for _, tc := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		client := pexels.New(server.URL, "k", 80, server.Client())
		_, err := client.Search(context.Background(), "x", shorts.OrientationLandscape)
		server.Close()
		if !errors.Is(err, tc.marker) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.marker, err)
		}
	}
}

func TestSearchTimeoutIsMarked(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := pexels.New(server.URL, "k", 80, server.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, "x", shorts.OrientationPortrait)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline to be preserved, got %v", err)
	}
}
