// Package apitest runs an in-process fake of the Loop API for tests.
//
// The fake speaks the same wire format as the Django backend: snake_case
// JSON, DRF-style error bodies, session and CSRF cookies. State is seeded
// from the fixtures package and can be inspected or replaced by tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hupe1980/loop/internal/casing"
	"github.com/hupe1980/loop/internal/fixtures"
	"github.com/hupe1980/loop/internal/maputil"
)

// Session values handed out on login.
const (
	CSRFToken = "NNNPfK8Gq96HHWvjl5fqyl05aWdzcw4k"
	SessionID = "abc123"
	Password  = "password123"
)

// DRF error details produced by the fake.
const (
	DetailCSRFMissing      = "CSRF Failed: CSRF token missing."
	DetailCSRFIncorrect    = "CSRF Failed: CSRF token from the 'X-Csrftoken' HTTP header incorrect."
	DetailCSRFLength       = "CSRF Failed: CSRF token from the 'X-Csrftoken' HTTP header has incorrect length."
	DetailNotAuthenticated = "Authentication credentials were not provided."
	DetailNotFound         = "Not found."
	DetailBadCredentials   = "Invalid credentials."
)

// Request is a recorded inbound request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	// Form holds multipart or urlencoded fields.
	Form map[string][]string
	// Files maps multipart file fields to their filenames.
	Files map[string]string
	// JSON is the decoded JSON body, if any.
	JSON map[string]any
}

type failure struct {
	status int
	body   map[string]any
}

// Server is the fake API.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	posts     []map[string]any
	topics    []map[string]any
	comments  map[string][]map[string]any
	users     map[string]map[string]any
	passwords map[string]string
	requests  []Request
	failures  map[string]failure
	nextID    int
}

// NewServer starts a fake seeded with five posts, two topics, and one
// comment on post1. The server is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	user := fixtures.Users.Build(nil)

	s := &Server{
		posts:     fixtures.Posts.BuildList(5, nil),
		topics:    fixtures.Topics.BuildList(2, nil),
		comments:  map[string][]map[string]any{"post1": {fixtures.Comments.BuildAt(nil, 1)}},
		users:     map[string]map[string]any{user["username"].(string): user},
		passwords: map[string]string{user["username"].(string): Password},
		failures:  map[string]failure{},
		nextID:    100,
	}

	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)

	return s
}

// BaseURL is the API root to hand to api.Config.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// Fail makes every subsequent method+path request answer status with body
// (a DRF-style error object). path is relative to the API root, e.g.
// "/posts/post1/upvote/".
func (s *Server) Fail(method, path string, status int, body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[method+" /api"+path] = failure{status: status, body: body}
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request. It panics when none exist.
func (s *Server) LastRequest() Request {
	reqs := s.Requests()

	return reqs[len(reqs)-1]
}

// Post returns a copy of the stored post with id, or nil.
func (s *Server) Post(id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOfPost(id); i >= 0 {
		return maputil.DeepCopyMap(s.posts[i])
	}

	return nil
}

// PostCount returns the number of stored posts.
func (s *Server) PostCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.posts)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/posts/{$}", s.listPosts)
	mux.HandleFunc("POST /api/posts/{$}", s.authed(s.createPost))
	mux.HandleFunc("DELETE /api/posts/{id}/{$}", s.authed(s.deletePost))
	mux.HandleFunc("POST /api/posts/{id}/upvote/{$}", s.authed(s.vote(1)))
	mux.HandleFunc("POST /api/posts/{id}/downvote/{$}", s.authed(s.vote(-1)))
	mux.HandleFunc("POST /api/posts/{id}/save/{$}", s.authed(s.setSaved(true)))
	mux.HandleFunc("DELETE /api/posts/{id}/save/{$}", s.authed(s.setSaved(false)))
	mux.HandleFunc("GET /api/posts/{id}/comments/{$}", s.listComments)
	mux.HandleFunc("POST /api/posts/{id}/comments/{$}", s.authed(s.createComment))
	mux.HandleFunc("DELETE /api/posts/{id}/comments/{cid}/{$}", s.authed(s.deleteComment))
	mux.HandleFunc("GET /api/topics/{$}", s.listTopics)
	mux.HandleFunc("POST /api/login/{$}", s.login)
	mux.HandleFunc("POST /api/register/{$}", s.register)
	mux.HandleFunc("POST /api/logout/{$}", s.authed(s.logout))
	mux.HandleFunc("POST /api/token/{$}", s.token)

	return s.record(mux)
}

// record captures each request and applies injected failures.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := Request{Method: r.Method, Path: r.URL.EscapedPath(), Header: r.Header.Clone()}

		switch ct := r.Header.Get("Content-Type"); {
		case strings.HasPrefix(ct, "multipart/form-data"):
			if err := r.ParseMultipartForm(10 << 20); err == nil {
				rec.Form = r.MultipartForm.Value
				rec.Files = map[string]string{}

				for field, headers := range r.MultipartForm.File {
					if len(headers) > 0 {
						rec.Files[field] = headers[0].Filename
					}
				}
			}
		case strings.HasPrefix(ct, "application/json"):
			_ = json.NewDecoder(r.Body).Decode(&rec.JSON)
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		f, failed := s.failures[r.Method+" "+rec.Path]
		s.mu.Unlock()

		if failed {
			writeJSON(w, f.status, f.body)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authed enforces the session cookie and, for unsafe methods, CSRF the way
// DRF's SessionAuthentication does.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sessionid"); err != nil || c.Value != SessionID {
			writeDetail(w, http.StatusForbidden, DetailNotAuthenticated)
			return
		}

		header := r.Header.Get("X-CSRFToken")

		switch {
		case header == "":
			writeDetail(w, http.StatusForbidden, DetailCSRFMissing)
			return
		case len(header) != len(CSRFToken):
			writeDetail(w, http.StatusForbidden, DetailCSRFLength)
			return
		}

		if c, err := r.Cookie("csrftoken"); err != nil || c.Value != header {
			writeDetail(w, http.StatusForbidden, DetailCSRFIncorrect)
			return
		}

		next(w, r)
	}
}

func (s *Server) listPosts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.posts)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	rec := s.lastRecorded()

	fields := map[string]any{}

	content := first(rec.Form["content"])
	if content == "" {
		fields["content"] = []string{"This field is required."}
	}

	if first(rec.Form["user_id"]) == "" {
		fields["user_id"] = []string{"This field is required."}
	}

	topicIDs := rec.Form["topics_ids"]
	if len(topicIDs) == 0 {
		fields["topics_ids"] = []string{"This list may not be empty."}
	}

	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	topics := make([]any, 0, len(topicIDs))
	for _, id := range topicIDs {
		topics = append(topics, map[string]any{"id": id, "name": s.topicName(id)})
	}

	var image any
	if name, ok := rec.Files["image"]; ok {
		image = "/media/" + name
	}

	post := fixtures.Posts.Build(map[string]any{
		"id":      s.newID("post"),
		"user":    s.userByID(first(rec.Form["user_id"])),
		"content": content,
		"image":   image,
		"topics":  topics,
	})

	s.posts = append([]map[string]any{post}, s.posts...)

	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfPost(r.PathValue("id"))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, DetailNotFound)
		return
	}

	s.posts = append(s.posts[:i], s.posts[i+1:]...)

	w.WriteHeader(http.StatusNoContent)
}

// vote applies the backend's toggle semantics for direction +1/-1.
func (s *Server) vote(direction int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		i := s.indexOfPost(r.PathValue("id"))
		if i < 0 {
			writeDetail(w, http.StatusNotFound, DetailNotFound)
			return
		}

		actions := maputil.DeepCopyMap(s.posts[i]["actions"].(map[string]any))
		up, _ := actions["isUpvoted"].(bool)
		down, _ := actions["isDownvoted"].(bool)
		votes, _ := actions["votes"].(int)

		if direction > 0 {
			if down {
				votes++
			}

			if up {
				votes--
			} else {
				votes++
			}

			actions["isUpvoted"], actions["isDownvoted"] = !up, false
		} else {
			if up {
				votes--
			}

			if down {
				votes++
			} else {
				votes--
			}

			actions["isUpvoted"], actions["isDownvoted"] = false, !down
		}

		actions["votes"] = votes
		s.posts[i] = mergeInto(s.posts[i], "actions", actions)

		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) setSaved(saved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		i := s.indexOfPost(r.PathValue("id"))
		if i < 0 {
			writeDetail(w, http.StatusNotFound, DetailNotFound)
			return
		}

		actions := maputil.DeepCopyMap(s.posts[i]["actions"].(map[string]any))
		actions["isSaved"] = saved
		s.posts[i] = mergeInto(s.posts[i], "actions", actions)

		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	if s.indexOfPost(id) < 0 {
		writeDetail(w, http.StatusNotFound, DetailNotFound)
		return
	}

	comments := s.comments[id]
	if comments == nil {
		comments = []map[string]any{}
	}

	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	rec := s.lastRecorded()

	content := first(rec.Form["content"])
	if content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"content": []string{"This field is required."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	postID := r.PathValue("id")
	if s.indexOfPost(postID) < 0 {
		writeDetail(w, http.StatusNotFound, DetailNotFound)
		return
	}

	var image any
	if name, ok := rec.Files["image"]; ok {
		image = "/media/" + name
	}

	comment := fixtures.Comments.Build(map[string]any{
		"id":      s.newID("comment"),
		"postId":  postID,
		"content": content,
		"image":   image,
	})

	s.comments[postID] = append(s.comments[postID], comment)

	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	postID, commentID := r.PathValue("id"), r.PathValue("cid")

	list := s.comments[postID]
	for i, c := range list {
		if c["id"] == commentID {
			s.comments[postID] = append(list[:i], list[i+1:]...)
			w.WriteHeader(http.StatusNoContent)

			return
		}
	}

	writeDetail(w, http.StatusNotFound, "No PostComment matches the given query.")
}

func (s *Server) listTopics(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.topics)
}

func (s *Server) login(w http.ResponseWriter, _ *http.Request) {
	body := s.lastRecorded().JSON
	username, _ := body["username"].(string)
	password, _ := body["password"].(string)

	s.mu.Lock()
	user, ok := s.users[username]
	valid := ok && s.passwords[username] == password
	s.mu.Unlock()

	if !valid {
		writeJSON(w, http.StatusBadRequest, map[string]any{"non_field_errors": []string{DetailBadCredentials}})
		return
	}

	startSession(w)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) register(w http.ResponseWriter, _ *http.Request) {
	body := s.lastRecorded().JSON
	username, _ := body["username"].(string)
	password, _ := body["password"].(string)
	email, _ := body["email"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]any{"username": []string{"A user with that username already exists."}})
		return
	}

	user := map[string]any{"id": s.newID("user"), "username": username, "email": email}
	s.users[username] = user
	s.passwords[username] = password

	startSession(w)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{"detail": "Successfully logged out."})
}

func (s *Server) token(w http.ResponseWriter, _ *http.Request) {
	body := s.lastRecorded().JSON
	username, _ := body["username"].(string)
	password, _ := body["password"].(string)

	s.mu.Lock()
	valid := s.passwords[username] != "" && s.passwords[username] == password
	s.mu.Unlock()

	if !valid {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"access": "access-" + username, "refresh": "refresh-" + username})
}

func (s *Server) lastRecorded() Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.requests[len(s.requests)-1]
}

func (s *Server) indexOfPost(id string) int {
	for i, p := range s.posts {
		if p["id"] == id {
			return i
		}
	}

	return -1
}

func (s *Server) topicName(id string) string {
	for _, t := range s.topics {
		if t["id"] == id {
			name, _ := t["name"].(string)
			return name
		}
	}

	return id
}

func (s *Server) userByID(id string) map[string]any {
	for _, u := range s.users {
		if u["id"] == id {
			return u
		}
	}

	return fixtures.Users.Build(map[string]any{"id": id})
}

func (s *Server) newID(prefix string) string {
	s.nextID++

	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

func startSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: SessionID, Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: CSRFToken, Path: "/"})
}

func mergeInto(m map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	out[key] = value

	return out
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// writeJSON sends v in wire format (snake_case keys).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(casing.ToSnakeCase(v))
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}
