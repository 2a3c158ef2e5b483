package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arborhq/arbor/internal/auth"
	"github.com/arborhq/arbor/internal/editor"
	"github.com/arborhq/arbor/internal/tree"
)

// treeResponse is the payload of GET /api/tree.
type treeResponse struct {
	// Root is the requested (sub)tree.
	Root *tree.Node `json:"root"`

	// Path is the breadcrumb from the true root to the view root,
	// outermost first, nodes without children.
	Path []*tree.Node `json:"path,omitempty"`
}

// nodeRequest is the body of the mutating node endpoints.
type nodeRequest struct {
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name"`
	Born     string `json:"born,omitempty"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// handleTree serves the current tree, or the subtree at ?root=<id> together
// with its breadcrumb path for "focus" navigation.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	resp := treeResponse{}

	if viewRoot := r.URL.Query().Get("root"); viewRoot != "" {
		resp.Root = s.editor.Find(viewRoot)
		if resp.Root == nil {
			writeError(w, http.StatusNotFound, "node not found: "+viewRoot)
			return
		}
		resp.Path = s.editor.Path(viewRoot)
	} else {
		resp.Root = s.editor.Tree()
	}

	if resp.Root == nil {
		writeError(w, http.StatusServiceUnavailable, "no tree loaded")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRecords serves the flat record view of the tree, the shape the
// store holds.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	root := s.editor.Tree()
	if root == nil {
		writeError(w, http.StatusServiceUnavailable, "no tree loaded")
		return
	}
	writeJSON(w, http.StatusOK, tree.Flatten(root))
}

// handleAddChild adds a new leaf under the parent named in the body.
func (s *Server) handleAddChild(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ParentID == "" {
		writeError(w, http.StatusBadRequest, "parent_id is required")
		return
	}

	node, err := s.editor.AddChild(r.Context(), auth.BearerToken(r), req.ParentID, req.Name, req.Born)
	if err != nil {
		writeEditorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

// handleEditNode updates the name and born date of a node. Fields omitted
// from the body keep their current values.
func (s *Server) handleEditNode(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id := r.PathValue("id")
	if cur := s.editor.Find(id); cur != nil {
		if req.Name == "" {
			req.Name = cur.Name
		}
		if req.Born == "" {
			req.Born = cur.Born
		}
	}
	if err := s.editor.EditNode(r.Context(), auth.BearerToken(r), id, req.Name, req.Born); err != nil {
		writeEditorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.editor.Find(id))
}

// handleDeleteNode prunes a node and its subtree.
func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.editor.DeleteNode(r.Context(), auth.BearerToken(r), id); err != nil {
		writeEditorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddParent splices a new node in above the target.
func (s *Server) handleAddParent(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	node, err := s.editor.AddParentAbove(r.Context(), auth.BearerToken(r), r.PathValue("id"), req.Name)
	if err != nil {
		writeEditorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

// handleToggleCollapse flips the collapsed flag of a node.
func (s *Server) handleToggleCollapse(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.editor.ToggleCollapse(r.Context(), auth.BearerToken(r), id); err != nil {
		writeEditorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.editor.Find(id))
}

// writeEditorError maps editor errors onto HTTP statuses: missing or wrong
// capability to 401/403, validation failures to 400/404/422, everything
// else (persistence) to 502 since the optimistic state was rolled back on
// a backing-store failure.
func writeEditorError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, editor.ErrNotAdmin):
		if auth.BearerToken(r) == "" {
			writeError(w, http.StatusUnauthorized, err.Error())
		} else {
			writeError(w, http.StatusForbidden, err.Error())
		}
	case errors.Is(err, editor.ErrEmptyName):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, editor.ErrNoSuchNode):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, editor.ErrRootDelete):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, editor.ErrNoTree):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
