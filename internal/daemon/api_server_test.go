package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shortreel/internal/api"
	"shortreel/internal/queue"
	"shortreel/internal/testsupport"
)

func newTestServer(t *testing.T, env *testEnv, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(env.daemon.api.routes(token))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

const validSubmission = `{"scenes":[{"text":"Dogs are great.","searchTerms":["dog"]}],"config":{"music":"happy"}}`

func TestSubmitRejectsInvalidPayloads(t *testing.T) {
	env := newTestEnv(t, testConfig(t), nil)
	srv := newTestServer(t, env, "")

	cases := map[string]string{
		"malformed json": `{"scenes":`,
		"no scenes":      `{"scenes":[]}`,
		"missing terms":  `{"scenes":[{"text":"hi"}]}`,
		"unknown voice":  `{"scenes":[{"text":"hi","searchTerms":["x"]}],"config":{"voice":"robot"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, srv.URL+"/api/short-video", body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var payload api.ErrorResponse
			decodeBody(t, resp, &payload)
			if payload.Error == "" {
				t.Fatal("expected error message")
			}
		})
	}
	if snap := env.queue.Snapshot(); snap.Queued != 0 {
		t.Fatalf("invalid submissions must not be queued: %+v", snap)
	}
}

func TestVideoLifecycle(t *testing.T) {
	gate := make(chan struct{})
	env := newTestEnv(t, testConfig(t), gate)
	srv := newTestServer(t, env, "")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/short-video", validSubmission)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var submitted api.SubmitResponse
	decodeBody(t, resp, &submitted)
	if submitted.VideoID == "" {
		t.Fatal("expected video id")
	}
	base := srv.URL + "/api/short-video/" + submitted.VideoID

	var status api.StatusResponse
	decodeBody(t, doRequest(t, http.MethodGet, base+"/status", ""), &status)
	if status.Status != string(queue.StatusProcessing) {
		t.Fatalf("expected processing, got %q", status.Status)
	}

	if resp := doRequest(t, http.MethodDelete, base, ""); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 deleting a processing video, got %d", resp.StatusCode)
	}
	if resp := doRequest(t, http.MethodGet, base, ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 downloading an unfinished video, got %d", resp.StatusCode)
	}

	close(gate)
	waitQueue(t, env.queue)

	decodeBody(t, doRequest(t, http.MethodGet, base+"/status", ""), &status)
	if status.Status != string(queue.StatusReady) {
		t.Fatalf("expected ready, got %q", status.Status)
	}

	var list api.VideoListResponse
	decodeBody(t, doRequest(t, http.MethodGet, srv.URL+"/api/short-videos", ""), &list)
	if len(list.Videos) != 1 || list.Videos[0].ID != submitted.VideoID || list.Videos[0].Status != "ready" {
		t.Fatalf("unexpected listing: %+v", list.Videos)
	}

	download := doRequest(t, http.MethodGet, base, "")
	if download.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", download.StatusCode)
	}
	if ct := download.Header.Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("unexpected content type %q", ct)
	}
	data, _ := io.ReadAll(download.Body)
	if string(data) != "fake-mp4" {
		t.Fatalf("unexpected body %q", data)
	}

	deleted := doRequest(t, http.MethodDelete, base, "")
	if deleted.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 deleting, got %d", deleted.StatusCode)
	}
	var del api.DeleteResponse
	decodeBody(t, deleted, &del)
	if !del.Success {
		t.Fatal("expected success")
	}
	if exists, _ := env.store.Exists(context.Background(), submitted.VideoID); exists {
		t.Fatal("expected artifact removed")
	}
	if resp := doRequest(t, http.MethodDelete, base, ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", resp.StatusCode)
	}
}

func TestUnknownVideoReportsFailed(t *testing.T) {
	env := newTestEnv(t, testConfig(t), nil)
	srv := newTestServer(t, env, "")

	var status api.StatusResponse
	decodeBody(t, doRequest(t, http.MethodGet, srv.URL+"/api/short-video/nope/status", ""), &status)
	if status.Status != string(queue.StatusFailed) {
		t.Fatalf("expected failed for unknown id, got %q", status.Status)
	}
	if resp := doRequest(t, http.MethodGet, srv.URL+"/api/short-video/nope", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCatalogRoutes(t *testing.T) {
	env := newTestEnv(t, testConfig(t), nil)
	srv := newTestServer(t, env, "")

	var tags []string
	decodeBody(t, doRequest(t, http.MethodGet, srv.URL+"/api/music-tags", ""), &tags)
	if len(tags) == 0 {
		t.Fatal("expected music tags")
	}
	var voices []string
	decodeBody(t, doRequest(t, http.MethodGet, srv.URL+"/api/voices", ""), &voices)
	found := false
	for _, v := range voices {
		if v == "af_heart" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected af_heart among voices, got %v", voices)
	}
}

func TestStatusRoute(t *testing.T) {
	env := newTestEnv(t, testConfig(t), nil)
	srv := newTestServer(t, env, "")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/status", "")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
	var status api.DaemonStatus
	decodeBody(t, resp, &status)
	if status.PID == 0 || status.LockFilePath == "" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Storage != env.cfg.Paths.VideosDir {
		t.Fatalf("unexpected storage label %q", status.Storage)
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency report")
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories(), testsupport.WithAPIToken("secret"))
	env := newTestEnv(t, cfg, nil)
	srv := newTestServer(t, env, cfg.Paths.APIToken)

	if resp := doRequest(t, http.MethodGet, srv.URL+"/api/voices", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/voices", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/voices", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}
