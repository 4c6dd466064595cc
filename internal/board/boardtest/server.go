package boardtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/types"
)

// APIKeyHeader carries the API key on every request.
const APIKeyHeader = "X-Zen-ApiKey"

const wireTime = "2006-01-02T15:04:05"

// Server exposes a Board over HTTP using the board's REST layout.
type Server struct {
	*httptest.Server
	Board  *Board
	APIKey string

	mu       sync.Mutex
	throttle int
	failures int
	requests int
}

// NewServer starts a server in front of b. Requests must carry apiKey.
func NewServer(b *Board, apiKey string) *Server {
	s := &Server{Board: b, APIKey: apiKey}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects", s.listProjects)
	mux.HandleFunc("GET /projects/{pid}", s.getProject)
	mux.HandleFunc("GET /projects/{pid}/phases", s.listPhases)
	mux.HandleFunc("GET /projects/{pid}/stories", s.listStories)
	mux.HandleFunc("POST /projects/{pid}/stories", s.createStory)
	mux.HandleFunc("PUT /projects/{pid}/stories/{sid}", s.updateStory)
	mux.HandleFunc("DELETE /projects/{pid}/stories/{sid}", s.deleteStory)
	mux.HandleFunc("PUT /projects/{pid}/stories/{sid}/tags", s.replaceTags)
	mux.HandleFunc("GET /projects/{pid}/tags", s.listTags)
	mux.HandleFunc("DELETE /projects/{pid}/tags/{tid}", s.deleteTag)
	mux.HandleFunc("POST /projects/{pid}/stories/{sid}/tasks", s.createTask)
	mux.HandleFunc("PUT /projects/{pid}/stories/{sid}/tasks", s.reorderTasks)
	mux.HandleFunc("PUT /projects/{pid}/stories/{sid}/tasks/{tid}", s.updateTask)
	mux.HandleFunc("DELETE /projects/{pid}/stories/{sid}/tasks/{tid}", s.deleteTask)
	s.Server = httptest.NewServer(s.gate(mux))
	return s
}

// BaseURL returns the API base URL, with a trailing slash.
func (s *Server) BaseURL() string { return s.Server.URL + "/" }

// Throttle makes the next n requests fail with 429 Too Many Requests.
func (s *Server) Throttle(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.throttle = n
}

// FailNext makes the next n requests fail with 503 Service Unavailable.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
}

// Requests returns the number of requests received.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *Server) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		throttled := s.throttle > 0
		if throttled {
			s.throttle--
		}
		failed := !throttled && s.failures > 0
		if failed {
			s.failures--
		}
		s.mu.Unlock()

		switch {
		case r.Header.Get(APIKeyHeader) != s.APIKey:
			http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
		case throttled:
			w.Header().Set("Retry-After", "0")
			http.Error(w, `{"message":"slow down"}`, http.StatusTooManyRequests)
		case failed:
			http.Error(w, `{"message":"unavailable"}`, http.StatusServiceUnavailable)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

type wireUser struct {
	ID       int64  `json:"id,omitempty"`
	UserName string `json:"userName,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

type wireProject struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreateTime  string    `json:"createTime,omitempty"`
	Owner       *wireUser `json:"owner,omitempty"`
}

type wirePhase struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Index       int    `json:"index"`
	Limit       int    `json:"limit,omitempty"`
}

type wireTag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type wireTask struct {
	ID         int64  `json:"id,omitempty"`
	Text       string `json:"text"`
	Status     string `json:"status"`
	CreateTime string `json:"createTime,omitempty"`
	FinishTime string `json:"finishTime,omitempty"`
}

type wireStory struct {
	ID       int64      `json:"id,omitempty"`
	Text     string     `json:"text"`
	Details  string     `json:"details,omitempty"`
	Size     string     `json:"size,omitempty"`
	Priority string     `json:"priority,omitempty"`
	Color    string     `json:"color,omitempty"`
	Phase    *wirePhase `json:"phase,omitempty"`
	Creator  *wireUser  `json:"creator,omitempty"`
	Owner    *wireUser  `json:"owner,omitempty"`
	Tags     []wireTag  `json:"tags,omitempty"`
	Tasks    []wireTask `json:"tasks,omitempty"`
}

type wirePage struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
	TotalItems int   `json:"totalItems"`
	Items      []any `json:"items"`
}

func toWireUser(u *types.User) *wireUser {
	if u == nil {
		return nil
	}
	return &wireUser{ID: u.ID, UserName: u.UserName, Name: u.Name, Email: u.Email}
}

func fromWireUser(u *wireUser) *types.User {
	if u == nil {
		return nil
	}
	return &types.User{ID: u.ID, UserName: u.UserName, Name: u.Name, Email: u.Email}
}

func toWireTask(t types.BoardTask) wireTask {
	w := wireTask{ID: t.ID, Text: t.Text, Status: "incomplete"}
	if t.Complete {
		w.Status = "complete"
	}
	if t.CreateTime != nil {
		w.CreateTime = t.CreateTime.Format(wireTime)
	}
	if t.FinishTime != nil {
		w.FinishTime = t.FinishTime.Format(wireTime)
	}
	return w
}

func toWireStory(s types.Story) wireStory {
	w := wireStory{
		ID: s.ID, Text: s.Text, Details: s.Details, Size: s.Size, Priority: s.Priority,
		Color:   string(s.Color),
		Phase:   &wirePhase{ID: s.Phase.ID, Name: s.Phase.Name, Index: s.Phase.Index},
		Creator: toWireUser(s.Creator),
		Owner:   toWireUser(s.Owner),
	}
	for _, t := range s.Tags {
		w.Tags = append(w.Tags, wireTag{ID: t.ID, Name: t.Name})
	}
	for _, t := range s.Tasks {
		w.Tasks = append(w.Tasks, toWireTask(t))
	}
	return w
}

func fromWireStory(w wireStory) types.Story {
	s := types.Story{
		ID: w.ID, Text: w.Text, Details: w.Details, Size: w.Size, Priority: w.Priority,
		Color: types.Color(w.Color),
		Owner: fromWireUser(w.Owner),
	}
	if w.Phase != nil {
		s.Phase = types.Phase{ID: w.Phase.ID, Name: w.Phase.Name}
	}
	for _, t := range w.Tasks {
		s.Tasks = append(s.Tasks, types.BoardTask{ID: t.ID, Text: t.Text, Complete: t.Status == "complete"})
	}
	return s
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	code := http.StatusBadRequest
	if errors.Is(err, types.ErrProjectNotFound) || strings.Contains(err.Error(), "not found") {
		code = http.StatusNotFound
	}
	http.Error(w, `{"message":`+strconv.Quote(err.Error())+`}`, code)
}

// paginate serves items using the page and pageSize query parameters.
func paginate[T any](w http.ResponseWriter, r *http.Request, items []T) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 100
	}
	total := (len(items) + size - 1) / size
	if total == 0 {
		total = 1
	}
	out := wirePage{Page: page, PageSize: size, TotalPages: total, TotalItems: len(items), Items: []any{}}
	start := (page - 1) * size
	for i := start; i < len(items) && i < start+size; i++ {
		out.Items = append(out.Items, items[i])
	}
	writeJSON(w, out)
}

func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	s.Board.mu.Lock()
	var items []wireProject
	where := strings.TrimPrefix(r.URL.Query().Get("where"), "name:")
	for _, p := range s.Board.projects {
		if where != "" && p.info.Name != where {
			continue
		}
		items = append(items, wireProject{
			ID: p.info.ID, Name: p.info.Name, Description: p.info.Description,
			CreateTime: time.Date(2012, 5, 1, 0, 0, 0, 0, time.UTC).Format(wireTime),
			Owner:      toWireUser(p.info.Owner),
		})
	}
	s.Board.mu.Unlock()
	paginate(w, r, items)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	s.Board.mu.Lock()
	p := s.Board.project(pathID(r, "pid"))
	s.Board.mu.Unlock()
	if p == nil {
		http.Error(w, `{"message":"project not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, wireProject{ID: p.info.ID, Name: p.info.Name, Description: p.info.Description, Owner: toWireUser(p.info.Owner)})
}

func (s *Server) listPhases(w http.ResponseWriter, r *http.Request) {
	phases, err := s.Board.ListPhases(r.Context(), pathID(r, "pid"))
	if err != nil {
		writeErr(w, err)
		return
	}
	items := make([]wirePhase, 0, len(phases))
	for _, p := range phases {
		items = append(items, wirePhase{ID: p.ID, Name: p.Name, Description: p.Description, Index: p.Index, Limit: p.Limit})
	}
	paginate(w, r, items)
}

func (s *Server) listStories(w http.ResponseWriter, r *http.Request) {
	with := map[string]bool{}
	for _, e := range strings.Split(r.URL.Query().Get("with"), ",") {
		with[strings.TrimSpace(e)] = true
	}
	stories, err := s.Board.ListStories(r.Context(), pathID(r, "pid"),
		reconcile.StoryQuery{WithTags: with["tags"], WithTasks: with["tasks"]})
	if err != nil {
		writeErr(w, err)
		return
	}
	items := make([]wireStory, 0, len(stories))
	for _, st := range stories {
		ws := toWireStory(st)
		if !with["details"] {
			ws.Details = ""
		}
		items = append(items, ws)
	}
	paginate(w, r, items)
}

func decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		http.Error(w, `{"message":"bad json"}`, http.StatusBadRequest)
		return v, false
	}
	return v, true
}

func (s *Server) createStory(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[wireStory](w, r)
	if !ok {
		return
	}
	created, err := s.Board.CreateStory(r.Context(), pathID(r, "pid"), fromWireStory(in))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, toWireStory(created))
}

func (s *Server) updateStory(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[wireStory](w, r)
	if !ok {
		return
	}
	updated, err := s.Board.UpdateStory(r.Context(), pathID(r, "pid"), pathID(r, "sid"), fromWireStory(in))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, toWireStory(updated))
}

func (s *Server) deleteStory(w http.ResponseWriter, r *http.Request) {
	if err := s.Board.DeleteStory(r.Context(), pathID(r, "pid"), pathID(r, "sid")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) replaceTags(w http.ResponseWriter, r *http.Request) {
	names, ok := decode[[]string](w, r)
	if !ok {
		return
	}
	pid, sid := pathID(r, "pid"), pathID(r, "sid")
	if err := s.Board.ReplaceTags(r.Context(), pid, sid, names); err != nil {
		writeErr(w, err)
		return
	}
	st, _ := s.Board.Story(pid, sid)
	writeJSON(w, toWireStory(st).Tags)
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.Board.ListTags(r.Context(), pathID(r, "pid"))
	if err != nil {
		writeErr(w, err)
		return
	}
	items := make([]wireTag, 0, len(tags))
	for _, t := range tags {
		items = append(items, wireTag{ID: t.ID, Name: t.Name})
	}
	paginate(w, r, items)
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.Board.DeleteTag(r.Context(), pathID(r, "pid"), pathID(r, "tid")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[wireTask](w, r)
	if !ok {
		return
	}
	t, err := s.Board.CreateTask(r.Context(), pathID(r, "pid"), pathID(r, "sid"),
		types.BoardTask{Text: in.Text, Complete: in.Status == "complete"})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, toWireTask(t))
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[wireTask](w, r)
	if !ok {
		return
	}
	t, err := s.Board.UpdateTask(r.Context(), pathID(r, "pid"), pathID(r, "sid"),
		types.BoardTask{ID: pathID(r, "tid"), Text: in.Text, Complete: in.Status == "complete"})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, toWireTask(t))
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.Board.DeleteTask(r.Context(), pathID(r, "pid"), pathID(r, "sid"), pathID(r, "tid")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) reorderTasks(w http.ResponseWriter, r *http.Request) {
	ids, ok := decode[[]int64](w, r)
	if !ok {
		return
	}
	tasks, err := s.Board.ReorderTasks(r.Context(), pathID(r, "pid"), pathID(r, "sid"), ids)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]wireTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toWireTask(t))
	}
	writeJSON(w, out)
}
