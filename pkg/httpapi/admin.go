package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fluorfn/runtime/pkg/componentcache"
	"github.com/fluorfn/runtime/pkg/function"
	"github.com/fluorfn/runtime/pkg/routing"
)

// BinaryStore is the narrow capability the admin surface needs from the
// object store: persist a function's binary and remove it again.
type BinaryStore interface {
	Put(name string, src io.Reader) (string, error)
	Remove(name string) error
}

// AdminDeps wires the optional function/trigger management surface. A
// Server built without AdminDeps simply never mounts /admin; the
// invocation path at /function is unaffected either way.
type AdminDeps struct {
	Functions  function.FunctionRepository
	Triggers   function.TriggerRepository
	Binaries   BinaryStore
	Cache      *componentcache.Cache
	RouteTable *routing.Table
}

// mountAdmin wires the CRUD surface for functions and triggers described in
// spec.md §6 as "collaborators, not core": creating/updating a function
// writes its binary to storage and (re)loads it into the Component Cache;
// creating/deleting a trigger always fully rebuilds the Route Table.
func (s *Server) mountAdmin(r chi.Router, deps AdminDeps) {
	s.admin = deps

	r.Get("/admin/functions", s.handleListFunctions)
	r.Post("/admin/functions", s.handleCreateFunction)
	r.Put("/admin/functions/{name}", s.handleUpdateFunction)
	r.Delete("/admin/functions/{name}", s.handleDeleteFunction)

	r.Get("/admin/triggers", s.handleListTriggers)
	r.Post("/admin/triggers", s.handleCreateTrigger)
	r.Delete("/admin/triggers/{name}", s.handleDeleteTrigger)
}

func (s *Server) handleListFunctions(w http.ResponseWriter, r *http.Request) {
	fns, err := s.admin.Functions.FindAll(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fns)
}

// functionMetaFromQuery reads the admin-write request shape: metadata in the query
// string, the raw Wasm binary as the request body. Splitting the two
// avoids a multipart parse for what is otherwise a single-binary upload.
func functionMetaFromQuery(r *http.Request, name string) function.Function {
	q := r.URL.Query()
	readonly, _ := strconv.ParseBool(q.Get("readonly"))
	return function.Function{
		Name:       name,
		Language:   function.Language(q.Get("language")),
		CPUHint:    q.Get("cpu_hint"),
		MemoryHint: q.Get("memory_hint"),
		ReadOnly:   readonly,
	}
}

func (s *Server) handleCreateFunction(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.writeError(w, function.Validation("httpapi.handleCreateFunction", "name query parameter is required"))
		return
	}
	fn := functionMetaFromQuery(r, name)

	path, err := s.admin.Binaries.Put(name, r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	fn.Path = path

	if err := s.admin.Functions.Save(r.Context(), &fn); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.admin.Cache.Load(r.Context(), fn.Name, fn.Path); err != nil {
		s.logger.Warn("admin-created function failed validation on load",
			zap.String("function_name", fn.Name), zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, fn)
}

func (s *Server) handleUpdateFunction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	fn := functionMetaFromQuery(r, name)

	path, err := s.admin.Binaries.Put(name, r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	fn.Path = path

	if err := s.admin.Functions.Update(r.Context(), &fn); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.admin.Cache.Load(r.Context(), fn.Name, fn.Path); err != nil {
		s.logger.Warn("admin-updated function failed validation on reload",
			zap.String("function_name", fn.Name), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, fn)
}

func (s *Server) handleDeleteFunction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.admin.Functions.Delete(r.Context(), name); err != nil {
		s.writeError(w, err)
		return
	}
	s.admin.Cache.Evict(name)
	if err := s.admin.Binaries.Remove(name); err != nil {
		s.logger.Warn("advisory binary cleanup failed", zap.String("function_name", name), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTriggers(w http.ResponseWriter, r *http.Request) {
	triggers, err := s.admin.Triggers.FindAll(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, triggers)
}

type triggerRequest struct {
	Name         string `json:"name"`
	Method       string `json:"method"`
	Path         string `json:"path"`
	FunctionName string `json:"function_name"`
	ReadOnly     bool   `json:"readonly"`
}

func (s *Server) handleCreateTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, function.Validation("httpapi.handleCreateTrigger", "invalid JSON body"))
		return
	}
	trig := &function.Trigger{
		Name:         req.Name,
		Method:       function.NormalizeMethod(req.Method),
		Path:         req.Path,
		FunctionName: req.FunctionName,
		ReadOnly:     req.ReadOnly,
	}
	if err := s.admin.Triggers.Save(r.Context(), trig); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.rebuildRoutes(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trig)
}

func (s *Server) handleDeleteTrigger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.admin.Triggers.Delete(r.Context(), name); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.rebuildRoutes(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) rebuildRoutes(ctx context.Context) error {
	return s.admin.RouteTable.Rebuild(ctx, s.admin.Triggers, s.admin.Functions)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
