package board

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/steveyegge/pikpoint/internal/board/boardtest"
	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/source/memory"
	"github.com/steveyegge/pikpoint/internal/types"
)

const testKey = "secret-key"

func newTestClient(t *testing.T, opts ...Option) (*Client, *boardtest.Server, int64) {
	t.Helper()
	b := boardtest.New()
	pid := b.AddProject("Personal", boardtest.DefaultPhases())
	srv := boardtest.NewServer(b, testKey)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithRetryInterval(time.Millisecond), WithRateLimit(0)}, opts...)
	return NewClient(srv.BaseURL(), testKey, opts...), srv, pid
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", "k")
	if c.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL, DefaultBaseURL)
	}
	if c.PageSize != DefaultPageSize || c.MaxRetries != DefaultMaxRetries {
		t.Errorf("PageSize = %d, MaxRetries = %d", c.PageSize, c.MaxRetries)
	}
	if c.HTTPClient == nil || c.HTTPClient.Timeout != DefaultTimeout {
		t.Error("HTTP client not configured")
	}

	c = NewClient("https://board.example.com/api", "k", WithPageSize(-1))
	if c.BaseURL != "https://board.example.com/api/" {
		t.Errorf("BaseURL = %q, want trailing slash", c.BaseURL)
	}
	if c.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want default", c.PageSize)
	}
}

func TestClientSendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(APIKeyHeader); got != testKey {
			t.Errorf("%s = %q, want %q", APIKeyHeader, got, testKey)
		}
		if r.Method == http.MethodPost && r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 1, "name": "Personal"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, testKey, WithRateLimit(0))
	var p Project
	if err := c.request(context.Background(), http.MethodPost, "projects", map[string]string{"a": "b"}, &p); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if p.Name != "Personal" {
		t.Errorf("Name = %q", p.Name)
	}
}

func TestClientRetriesThrottling(t *testing.T) {
	c, srv, pid := newTestClient(t)
	srv.Throttle(2)

	phases, err := c.ListPhases(context.Background(), pid)
	if err != nil {
		t.Fatalf("ListPhases after throttling: %v", err)
	}
	if len(phases) != 6 {
		t.Errorf("got %d phases, want 6", len(phases))
	}
	if srv.Requests() != 3 {
		t.Errorf("requests = %d, want 3", srv.Requests())
	}
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	c, srv, pid := newTestClient(t, WithMaxRetries(2))
	srv.FailNext(10)

	_, err := c.ListPhases(context.Background(), pid)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if srv.Requests() != 3 {
		t.Errorf("requests = %d, want 3 (one try plus two retries)", srv.Requests())
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	b := boardtest.New()
	srv := boardtest.NewServer(b, testKey)
	defer srv.Close()
	c := NewClient(srv.BaseURL(), "wrong", WithRetryInterval(time.Millisecond), WithRateLimit(0))

	_, err := c.ListTags(context.Background(), 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
	if srv.Requests() != 1 {
		t.Errorf("requests = %d, want 1", srv.Requests())
	}
}

func TestClientPagination(t *testing.T) {
	c, srv, pid := newTestClient(t, WithPageSize(2))
	for i := 0; i < 5; i++ {
		srv.Board.Seed(pid, types.Story{Text: "s", Details: "[id](x)", Phase: types.Phase{ID: 10}})
	}

	stories, err := c.ListStories(context.Background(), pid, reconcile.StoryQuery{})
	if err != nil {
		t.Fatalf("ListStories: %v", err)
	}
	if len(stories) != 5 {
		t.Errorf("got %d stories, want 5", len(stories))
	}
	if srv.Requests() != 3 {
		t.Errorf("requests = %d, want 3 pages", srv.Requests())
	}
	if stories[0].Details != "[id](x)" {
		t.Errorf("details not requested: %q", stories[0].Details)
	}
}

func TestResolveProject(t *testing.T) {
	c, srv, pid := newTestClient(t)
	srv.Board.AddProject("Work", boardtest.DefaultPhases())
	srv.Board.AddProject("Work", boardtest.DefaultPhases())
	ctx := context.Background()

	p, err := c.ResolveProject(ctx, "Personal")
	if err != nil || p.ID != pid {
		t.Fatalf("ResolveProject(Personal) = %+v, %v", p, err)
	}
	p, err = c.ResolveProject(ctx, id(pid))
	if err != nil || p.Name != "Personal" {
		t.Fatalf("ResolveProject(%d) = %+v, %v", pid, p, err)
	}
	if _, err := c.ResolveProject(ctx, "Missing"); !errors.Is(err, types.ErrProjectNotFound) {
		t.Errorf("missing project: err = %v", err)
	}
	if _, err := c.ResolveProject(ctx, "Work"); !errors.Is(err, types.ErrAmbiguousProject) {
		t.Errorf("ambiguous project: err = %v", err)
	}
	if _, err := c.ResolveProject(ctx, "999999"); !errors.Is(err, types.ErrProjectNotFound) {
		t.Errorf("unknown numeric id: err = %v", err)
	}
}

func TestStoryAndTaskLifecycle(t *testing.T) {
	c, srv, pid := newTestClient(t)
	ctx := context.Background()

	created, err := c.CreateStory(ctx, pid, types.Story{
		Text:    "**Taxes**",
		Details: "do it\n[id](P1)",
		Color:   types.ColorBlue,
		Phase:   types.Phase{ID: 11},
		Owner:   &types.User{UserName: "ann"},
		Tasks:   []types.BoardTask{{Text: "A"}, {Text: "B"}},
	})
	if err != nil {
		t.Fatalf("CreateStory: %v", err)
	}
	if created.ID == 0 || len(created.Tasks) != 2 || created.Phase.ID != 11 || created.OwnerName() != "ann" {
		t.Fatalf("created = %+v", created)
	}

	if err := c.ReplaceTags(ctx, pid, created.ID, []string{"home", "phone"}); err != nil {
		t.Fatalf("ReplaceTags: %v", err)
	}
	task, err := c.CreateTask(ctx, pid, created.ID, types.BoardTask{Text: "C"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	task.Complete = true
	if _, err := c.UpdateTask(ctx, pid, created.ID, task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	stored, _ := srv.Board.Story(pid, created.ID)
	if got := stored.TagNames(); strings.Join(got, ",") != "home,phone" {
		t.Errorf("tags = %v", got)
	}
	if stored.Tasks[0].Text != "C" || !stored.Tasks[0].Complete {
		t.Errorf("new task should be prepended and complete: %+v", stored.Tasks[0])
	}

	ids := []int64{stored.Tasks[1].ID, stored.Tasks[2].ID, stored.Tasks[0].ID}
	reordered, err := c.ReorderTasks(ctx, pid, created.ID, ids)
	if err != nil {
		t.Fatalf("ReorderTasks: %v", err)
	}
	if len(reordered) != 3 || reordered[2].Text != "C" {
		t.Errorf("reordered = %+v", reordered)
	}

	updated, err := c.UpdateStory(ctx, pid, created.ID, created.WithPhase(types.Phase{ID: 14}))
	if err != nil {
		t.Fatalf("UpdateStory: %v", err)
	}
	if updated.Phase.ID != 14 {
		t.Errorf("phase = %d, want 14", updated.Phase.ID)
	}

	if err := c.DeleteTask(ctx, pid, created.ID, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	tags, err := c.ListTags(ctx, pid)
	if err != nil || len(tags) != 2 {
		t.Fatalf("ListTags = %v, %v", tags, err)
	}
	if err := c.DeleteTag(ctx, pid, tags[0].ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	if err := c.DeleteStory(ctx, pid, created.ID); err != nil {
		t.Fatalf("DeleteStory: %v", err)
	}
	if len(srv.Board.Stories(pid)) != 0 {
		t.Error("story not deleted")
	}
}

func TestTimeJSON(t *testing.T) {
	var task Task
	if err := json.Unmarshal([]byte(`{"id":1,"text":"x","status":"complete","createTime":"2012-05-01T10:11:12.345","finishTime":null}`), &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := time.Date(2012, 5, 1, 10, 11, 12, 0, time.UTC)
	if !task.CreateTime.Equal(want) {
		t.Errorf("createTime = %v, want %v", task.CreateTime, want)
	}
	d := taskToDomain(task)
	if !d.Complete || d.FinishTime != nil {
		t.Errorf("domain task = %+v", d)
	}
}

func TestEngineOverHTTP(t *testing.T) {
	c, srv, _ := newTestClient(t)
	src := memory.New(types.SourceProject{
		ID:     "P1",
		Name:   "Taxes",
		Status: types.StatusActive,
		Tasks: []types.SourceTask{
			{ID: "t1", Name: "Gather receipts", Contexts: []string{"Home"}},
			{ID: "t2", Name: "File", Contexts: []string{"Computer"}},
		},
	})
	engine := reconcile.NewEngine(src, c, reconcile.Options{Project: "Personal"})

	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	srv.Board.ResetCalls()
	res, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if res.Writes() != 0 || srv.Board.Writes() != 0 {
		t.Errorf("second pass wrote %d (board saw %d)", res.Writes(), srv.Board.Writes())
	}
}
