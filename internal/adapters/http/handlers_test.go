package web

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"taskboard/internal/adapters/export"
	"taskboard/internal/adapters/http/perf"
	"taskboard/internal/adapters/http/views"
	projectStore "taskboard/internal/adapters/storage/project"
	"taskboard/internal/application/board"
	"taskboard/internal/domain/project"
)

func newTestServer(t *testing.T) (*Server, *board.Board) {
	t.Helper()
	n := 0
	b := board.New(projectStore.NewMemoryStore(), board.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("p-%d", n)
	}))
	active := views.NewListView(b, project.StatusActive)
	finished := views.NewListView(b, project.StatusFinished)
	active.Configure()
	finished.Configure()
	t.Cleanup(func() {
		active.Close()
		finished.Close()
	})

	s := NewServer(Deps{
		Board:     b,
		Active:    active,
		Finished:  finished,
		Exporter:  export.NewExporter(b),
		Collector: perf.NewCollector(100),
	})
	return s, b
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Routes().ServeHTTP(rr, req)
	return rr
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest("POST", "/projects", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func projectsOf(t *testing.T, b *board.Board) []project.Project {
	t.Helper()
	list, err := b.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	return list
}

// TestHandleIndex tests the board page renders both lists.
func TestHandleIndex(t *testing.T) {
	s, _ := newTestServer(t)

	rr := serve(s, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	for _, want := range []string{"ACTIVE PROJECTS", "FINISHED PROJECTS", `id="user-input"`} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("page missing %q", want)
		}
	}

	if rr := serve(s, httptest.NewRequest("GET", "/nope", nil)); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rr.Code)
	}
}

// TestHandleProjectCreate_Form tests form submissions.
func TestHandleProjectCreate_Form(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantCount  int
		wantBody   []string
	}{
		{
			name:       "valid",
			form:       url.Values{"title": {"Build bridge"}, "description": {"Large civil project"}, "people": {"3"}},
			wantStatus: http.StatusSeeOther,
			wantCount:  1,
		},
		{
			name:       "short description keeps values",
			form:       url.Values{"title": {"Bridge"}, "description": {"abcd"}, "people": {"3"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   []string{"invalid user input", `value="Bridge"`, ">abcd</textarea>"},
		},
		{
			name:       "too many people",
			form:       url.Values{"title": {"Bridge"}, "description": {"Large civil project"}, "people": {"6"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   []string{"invalid user input", `value="6"`},
		},
		{
			name:       "missing title",
			form:       url.Values{"description": {"Large civil project"}, "people": {"2"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   []string{"invalid user input"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, b := newTestServer(t)
			rr := serve(s, formRequest(tt.form))

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusSeeOther && rr.Header().Get("Location") != "/" {
				t.Errorf("Location = %q", rr.Header().Get("Location"))
			}
			if got := len(projectsOf(t, b)); got != tt.wantCount {
				t.Errorf("projects = %d, want %d", got, tt.wantCount)
			}
			for _, want := range tt.wantBody {
				if !strings.Contains(rr.Body.String(), want) {
					t.Errorf("body missing %q", want)
				}
			}
		})
	}
}

// TestHandleProjectCreate_JSON tests JSON submissions from the page script.
func TestHandleProjectCreate_JSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"numeric people", `{"title":"Build bridge","description":"Large civil project","people":3}`, http.StatusCreated},
		{"string people", `{"title":"Build bridge","description":"Large civil project","people":"3"}`, http.StatusCreated},
		{"empty people", `{"title":"Build bridge","description":"Large civil project","people":""}`, http.StatusBadRequest},
		{"zero people", `{"title":"Build bridge","description":"Large civil project","people":0}`, http.StatusBadRequest},
		{"blank title", `{"title":"  ","description":"Large civil project","people":2}`, http.StatusBadRequest},
		{"malformed", `{"title":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, b := newTestServer(t)
			rr := serve(s, jsonRequest("POST", "/projects", tt.body))

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantStatus == http.StatusBadRequest {
				var body map[string]string
				json.NewDecoder(rr.Body).Decode(&body)
				if body["error"] != "invalid user input" {
					t.Errorf("error = %q", body["error"])
				}
				if len(projectsOf(t, b)) != 0 {
					t.Error("board must be unchanged")
				}
				return
			}
			var p project.Project
			if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if p.People != 3 || p.Status != project.StatusActive || p.ID == "" {
				t.Errorf("unexpected project %+v", p)
			}
		})
	}
}

// TestHandleList tests HTML and JSON list rendering.
func TestHandleList(t *testing.T) {
	s, b := newTestServer(t)
	b.Add(context.Background(), "Build bridge", "Large civil project", 3)

	rr := serve(s, httptest.NewRequest("GET", "/lists/active", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Build bridge") {
		t.Errorf("HTML list: status=%d body=%s", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest("GET", "/lists/finished", nil)
	req.Header.Set("Accept", "application/json")
	rr = serve(s, req)
	var result struct {
		Heading  string            `json:"heading"`
		Projects []project.Project `json:"projects"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Heading != "FINISHED PROJECTS" || len(result.Projects) != 0 {
		t.Errorf("unexpected result %+v", result)
	}

	if rr := serve(s, httptest.NewRequest("GET", "/lists/archived", nil)); rr.Code != http.StatusNotFound {
		t.Errorf("unknown list status = %d, want 404", rr.Code)
	}
}

// TestHandleDrop tests the drop target endpoint.
func TestHandleDrop(t *testing.T) {
	payload := func(typ, id string) string {
		return fmt.Sprintf(`{"types":[%q],"data":{%q:%q},"effectAllowed":"move"}`, typ, typ, id)
	}
	tests := []struct {
		name        string
		target      string
		body        string
		wantCode    int
		wantProject project.Status
	}{
		{"move to finished", "/lists/finished/drop", payload("text/plain", "p-1"), http.StatusNoContent, project.StatusFinished},
		{"same list", "/lists/active/drop", payload("text/plain", "p-1"), http.StatusNoContent, project.StatusActive},
		{"unknown id", "/lists/finished/drop", payload("text/plain", "nope"), http.StatusNoContent, project.StatusActive},
		{"unsupported type", "/lists/finished/drop", payload("text/uri-list", "p-1"), http.StatusUnsupportedMediaType, project.StatusActive},
		{"text/plain not first", "/lists/finished/drop",
			`{"types":["text/uri-list","text/plain"],"data":{"text/uri-list":"x","text/plain":"p-1"}}`,
			http.StatusUnsupportedMediaType, project.StatusActive},
		{"malformed", "/lists/finished/drop", `not json`, http.StatusUnsupportedMediaType, project.StatusActive},
		{"unknown list", "/lists/archived/drop", payload("text/plain", "p-1"), http.StatusNotFound, project.StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, b := newTestServer(t)
			b.Add(context.Background(), "Build bridge", "Large civil project", 3)

			rr := serve(s, jsonRequest("POST", tt.target, tt.body))
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if got := projectsOf(t, b)[0].Status; got != tt.wantProject {
				t.Errorf("project status = %s, want %s", got, tt.wantProject)
			}
		})
	}
}

// TestHandleDrop_UpdatesLists tests the list views follow a drop.
func TestHandleDrop_UpdatesLists(t *testing.T) {
	s, b := newTestServer(t)
	p, _ := b.Add(context.Background(), "Build bridge", "Large civil project", 3)

	body := fmt.Sprintf(`{"types":["text/plain"],"data":{"text/plain":%q}}`, p.ID)
	serve(s, jsonRequest("POST", "/lists/finished/drop", body))

	if s.lists[project.StatusActive].Count() != 0 || s.lists[project.StatusFinished].Count() != 1 {
		t.Errorf("active=%d finished=%d", s.lists[project.StatusActive].Count(), s.lists[project.StatusFinished].Count())
	}
}

// TestHandleExport tests download formats.
func TestHandleExport(t *testing.T) {
	s, b := newTestServer(t)
	b.Add(context.Background(), "Build bridge", "Large civil project", 3)

	tests := []struct {
		query      string
		wantStatus int
		wantType   string
	}{
		{"", http.StatusOK, "application/json"},
		{"?format=csv", http.StatusOK, "text/csv; charset=utf-8"},
		{"?format=pdf", http.StatusOK, "application/pdf"},
		{"?format=xml", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		rr := serve(s, httptest.NewRequest("GET", "/export"+tt.query, nil))
		if rr.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d", tt.query, rr.Code, tt.wantStatus)
			continue
		}
		if tt.wantType != "" {
			if got := rr.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("%s: Content-Type = %q", tt.query, got)
			}
			if !strings.HasPrefix(rr.Header().Get("Content-Disposition"), "attachment;") {
				t.Errorf("%s: missing attachment disposition", tt.query)
			}
		}
	}
}

// TestHandleHealthzAndPerf tests the operational endpoints.
func TestHandleHealthzAndPerf(t *testing.T) {
	s, _ := newTestServer(t)

	rr := serve(s, httptest.NewRequest("GET", "/healthz", nil))
	var health map[string]any
	json.NewDecoder(rr.Body).Decode(&health)
	if rr.Code != http.StatusOK || health["status"] != "ok" {
		t.Errorf("healthz: status=%d body=%v", rr.Code, health)
	}

	s.collector.Record(perf.Entry{Kind: perf.KindNotify, Name: "board.add", Duration: time.Millisecond, At: time.Now()})
	rr = serve(s, httptest.NewRequest("GET", "/debug/perf?since=1h&top=3", nil))
	var snap perf.Snapshot
	if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
		t.Fatalf("decode perf: %v", err)
	}
	if snap.Notifies.Recorded != 1 || len(snap.Notifies.Slowest) != 1 {
		t.Errorf("unexpected perf snapshot %+v", snap.Notifies)
	}

	if rr := serve(s, httptest.NewRequest("GET", "/debug/perf?since=soon", nil)); rr.Code != http.StatusBadRequest {
		t.Errorf("bad since status = %d, want 400", rr.Code)
	}
}

// TestStaticAssets tests embedded assets are served.
func TestStaticAssets(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{"/static/board.js", "/static/board.css"} {
		if rr := serve(s, httptest.NewRequest("GET", path, nil)); rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}
}

// TestNewMux_Middleware tests the full stack: headers, CSRF on forms, JSON exemption.
func TestNewMux_Middleware(t *testing.T) {
	s, b := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewMux(ctx, Deps{
		Board:     b,
		Active:    s.lists[project.StatusActive],
		Finished:  s.lists[project.StatusFinished],
		Exporter:  s.exporter,
		Collector: s.collector,
	}, Options{
		CSRFKey:            []byte("0123456789abcdef0123456789abcdef"),
		RateLimitPerSecond: 100,
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, formRequest(url.Values{"title": {"t"}, "description": {"description"}, "people": {"2"}}))
	if rr.Code != http.StatusForbidden {
		t.Errorf("form without token status = %d, want 403", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, jsonRequest("POST", "/projects", `{"title":"t","description":"description","people":2}`))
	if rr.Code != http.StatusCreated {
		t.Errorf("JSON create status = %d, want 201", rr.Code)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if s.collector.TotalRecorded() == 0 {
		t.Error("timing middleware did not record")
	}
}

// readEvent returns the data of the next "board" event.
func readEvent(t *testing.T, r *bufio.Reader) boardEvent {
	t.Helper()
	var ev boardEvent
	sawData := false
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "data: "):
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			sawData = true
		case line == "" && sawData:
			return ev
		}
	}
}

// TestHandleEvents tests the stream pushes the current state and then each change.
func TestHandleEvents(t *testing.T) {
	s, b := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	stream := bufio.NewReader(resp.Body)

	initial := readEvent(t, stream)
	if initial.Counts[project.StatusActive] != 0 || initial.Active != "" || initial.Summary.Total != 0 {
		t.Errorf("unexpected initial event %+v", initial)
	}
	if b.Subscribers() != 3 {
		t.Errorf("Subscribers = %d, want 3 (two lists and one stream)", b.Subscribers())
	}

	p, _ := b.Add(context.Background(), "Build bridge", "Large civil project", 3)
	added := readEvent(t, stream)
	if added.Counts[project.StatusActive] != 1 || !strings.Contains(string(added.Active), "Build bridge") {
		t.Errorf("unexpected add event %+v", added)
	}
	if added.Summary.Total != 1 || added.Summary.People != 3 {
		t.Errorf("add event summary = %+v, want 1 project and 3 people", added.Summary)
	}

	b.Move(context.Background(), p.ID, project.StatusFinished)
	moved := readEvent(t, stream)
	if moved.Counts[project.StatusActive] != 0 || moved.Counts[project.StatusFinished] != 1 {
		t.Errorf("unexpected move event counts %v", moved.Counts)
	}
	if moved.Summary.ByStatus[project.StatusFinished] != 1 || moved.Summary.Total != 1 {
		t.Errorf("move event summary = %+v", moved.Summary)
	}
}
