// Package backendtest provides an in-process fake of the Docker management
// backend for tests.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"nathanbeddoewebdev/dockctl/internal/domain"
)

// Reply is one scripted backend answer.
type Reply struct {
	// HTTPStatus defaults to 200.
	HTTPStatus int
	Code       int
	Msg        string
	Status     string
	Data       any

	// Delay holds the reply back, e.g. to trip a client timeout.
	Delay time.Duration

	// Raw, when set, is written verbatim instead of an envelope.
	Raw string
}

// OK returns a success envelope carrying data.
func OK(data any) Reply { return Reply{Code: 200, Msg: "success", Data: data} }

// Reject returns a business rejection envelope.
func Reject(code int, msg string) Reply { return Reply{Code: code, Msg: msg} }

// Server is a fake backend. Fields may be modified between requests while
// holding no lock; the handlers lock internally.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	// Token, when non-empty, must be presented as the bearer token.
	Token     string
	SecretKey string

	Containers []domain.Container
	Images     []domain.Image
	Backups    []string

	// Overrides maps "METHOD /path" to a reply used instead of the default
	// behaviour.
	Overrides map[string]Reply

	// TaskIDs maps container ID to the task ID returned by update.
	TaskIDs map[string]string

	// Progress maps task ID to scripted replies. The last reply repeats.
	Progress map[string][]Reply

	calls         []string
	progressCalls map[string]int
	forms         map[string]map[string]string
}

// New starts a fake backend and registers its shutdown with t.Cleanup.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		Overrides:     map[string]Reply{},
		TaskIDs:       map[string]string{},
		Progress:      map[string][]Reply{},
		progressCalls: map[string]int{},
		forms:         map[string]map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth", s.handleAuth)
	mux.HandleFunc("GET /api/containers", s.handleContainers)
	mux.HandleFunc("POST /api/container/{id}/{action}", s.handleContainerAction)
	mux.HandleFunc("GET /api/progress/{task}", s.handleProgress)
	mux.HandleFunc("GET /api/images", s.handleImages)
	mux.HandleFunc("DELETE /api/image/{id}", s.handleDeleteImage)
	mux.HandleFunc("GET /api/container/listBackups", s.handleListBackups)
	mux.HandleFunc("POST /api/container/backup", s.handleOK)
	mux.HandleFunc("POST /api/container/backup2compose", s.handleOK)
	mux.HandleFunc("POST /api/container/backups/{name}/restore", s.handleOK)
	mux.HandleFunc("DELETE /api/container/backup/{name}", s.handleDeleteBackup)
	mux.HandleFunc("GET /api/version", s.handleVersion)

	s.Server = httptest.NewServer(s.middleware(mux))
	t.Cleanup(s.Server.Close)
	return s
}

// Calls returns "METHOD /path" for every request received, in order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// CallCount returns how many requests matched "METHOD /path".
func (s *Server) CallCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == key {
			n++
		}
	}
	return n
}

// Form returns the form fields of the last request to "METHOD /path".
func (s *Server) Form(key string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms[key]
}

// SetOverride installs a reply for "METHOD /path".
func (s *Server) SetOverride(key string, r Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Overrides[key] = r
}

// SetProgress scripts the replies for a task.
func (s *Server) SetProgress(task string, replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Progress[task] = replies
}

// SetContainers replaces the container list.
func (s *Server) SetContainers(cs ...domain.Container) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Containers = cs
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		_ = r.ParseForm()

		s.mu.Lock()
		s.calls = append(s.calls, key)
		if len(r.PostForm) > 0 {
			f := map[string]string{}
			for k := range r.PostForm {
				f[k] = r.PostForm.Get(k)
			}
			s.forms[key] = f
		}
		token := s.Token
		override, hasOverride := s.Overrides[key]
		s.mu.Unlock()

		if token != "" && key != "POST /api/auth" && r.Header.Get("Authorization") != "Bearer "+token {
			write(w, Reply{HTTPStatus: http.StatusUnauthorized, Code: 401, Msg: "unauthorized"})
			return
		}
		if hasOverride {
			write(w, override)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	secret := s.SecretKey
	s.mu.Unlock()
	if secret != "" && r.PostForm.Get("secretKey") != secret {
		write(w, Reject(401, "密钥错误"))
		return
	}
	write(w, OK(map[string]string{"jwt": "jwt-token"}))
}

func (s *Server) handleContainers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	cs := slices.Clone(s.Containers)
	s.mu.Unlock()
	if cs == nil {
		cs = []domain.Container{}
	}
	write(w, OK(cs))
}

func (s *Server) handleContainerAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	action := r.PathValue("action")

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.Containers, func(c domain.Container) bool { return c.ID == id })
	if idx < 0 {
		write(w, Reject(404, "container not found"))
		return
	}

	switch action {
	case "start", "restart":
		s.Containers[idx].Status = domain.StatusRunning
		write(w, OK(nil))
	case "stop":
		s.Containers[idx].Status = domain.StatusStopped
		write(w, OK(nil))
	case "rename":
		s.Containers[idx].Name = r.PostForm.Get("newName")
		write(w, OK(nil))
	case "update":
		task := s.TaskIDs[id]
		if task == "" {
			write(w, OK(nil))
			return
		}
		write(w, OK(map[string]string{"taskID": task}))
	default:
		write(w, Reject(400, "unknown action"))
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	task := r.PathValue("task")

	s.mu.Lock()
	replies := s.Progress[task]
	n := s.progressCalls[task]
	s.progressCalls[task] = n + 1
	s.mu.Unlock()

	if len(replies) == 0 {
		write(w, Reply{Code: 200, Msg: "running"})
		return
	}
	if n >= len(replies) {
		n = len(replies) - 1
	}
	write(w, replies[n])
}

func (s *Server) handleImages(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	imgs := slices.Clone(s.Images)
	s.mu.Unlock()
	if imgs == nil {
		imgs = []domain.Image{}
	}
	write(w, OK(imgs))
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	force := r.URL.Query().Get("force") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.Images, func(i domain.Image) bool { return i.ID == id })
	if idx < 0 {
		write(w, Reject(404, "image not found"))
		return
	}
	if s.Images[idx].InUsed && !force {
		write(w, Reject(409, "image is in use by a container"))
		return
	}
	s.Images = slices.Delete(s.Images, idx, idx+1)
	write(w, OK(nil))
}

func (s *Server) handleListBackups(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	b := slices.Clone(s.Backups)
	s.mu.Unlock()
	if b == nil {
		b = []string{}
	}
	write(w, OK(b))
}

func (s *Server) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.Index(s.Backups, name)
	if idx < 0 {
		write(w, Reject(404, "backup not found"))
		return
	}
	s.Backups = slices.Delete(s.Backups, idx, idx+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOK(w http.ResponseWriter, _ *http.Request) {
	write(w, OK(nil))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if strings.EqualFold(r.URL.Query().Get("type"), "remote") {
		write(w, OK(map[string]string{"remoteVersion": "1.3.0", "updateUrl": "https://example.invalid/release"}))
		return
	}
	write(w, OK(map[string]string{"version": "1.2.0", "buildDate": "2026-01-01"}))
}

func write(w http.ResponseWriter, r Reply) {
	if r.Delay > 0 {
		time.Sleep(r.Delay)
	}
	status := r.HTTPStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Raw != "" {
		_, _ = w.Write([]byte(r.Raw))
		return
	}
	body := map[string]any{"code": r.Code, "msg": r.Msg, "data": r.Data}
	if r.Status != "" {
		body["status"] = r.Status
	}
	_ = json.NewEncoder(w).Encode(body)
}
