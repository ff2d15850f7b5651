package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/clusterview/pkg/buildinfo"
	"github.com/matzehuels/clusterview/pkg/errors"
	"github.com/matzehuels/clusterview/pkg/render"
	"github.com/matzehuels/clusterview/pkg/session"
	"github.com/matzehuels/clusterview/pkg/visibility"
)

type nodeView struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	ClusterID     string `json:"clusterId"`
	IsClusterNode bool   `json:"isClusterNode,omitempty"`
	Visible       bool   `json:"visible"`
}

type linkView struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Visible bool   `json:"visible"`
}

type sessionResponse struct {
	ID       string                 `json:"id"`
	Clusters []session.ClusterState `json:"clusters"`
	Nodes    []nodeView             `json:"nodes"`
	Links    []linkView             `json:"links"`
	Stats    visibility.Stats       `json:"stats"`
}

func newSessionResponse(sess *session.Session) sessionResponse {
	v := sess.View()
	resp := sessionResponse{
		ID:       sess.ID,
		Clusters: sess.Clusters(),
		Nodes:    make([]nodeView, len(v.Nodes)),
		Links:    make([]linkView, len(v.Links)),
		Stats:    v.Stats(),
	}
	for i, n := range v.Nodes {
		resp.Nodes[i] = nodeView{
			ID:            n.ID,
			Name:          n.Name,
			ClusterID:     n.ClusterID,
			IsClusterNode: n.IsClusterNode,
			Visible:       v.NodeVisible(n.ID),
		}
	}
	for i, l := range v.Links {
		resp.Links[i] = linkView{Source: l.Source, Target: l.Target, Visible: v.LinkVisible(i)}
	}
	return resp
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"build":    buildinfo.Get(),
		"sessions": s.registry.Len(),
	})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Create(s.data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.registry.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.session(w, r); ok {
		s.respondJSON(w, http.StatusOK, newSessionResponse(sess))
	}
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(chi.URLParam(r, "sessionID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clickNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.ClickNode(chi.URLParam(r, "nodeID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) toggleHidden(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.ToggleHidden(chi.URLParam(r, "clusterID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Reset()
	s.respondJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) svg(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	data, err := sess.Render(r.Context(), render.FormatSVG, s.opts.RenderCache)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func statusFor(err error) int {
	if errors.IsNotFound(err) {
		return http.StatusNotFound
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidID, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeClusterHidden:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	var body errorBody
	body.Error.Code = errors.GetCode(err)
	body.Error.Message = errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		if body.Error.Code == "" {
			body.Error.Code = errors.ErrCodeInternal
		}
		body.Error.Message = "internal error"
	}
	s.respondJSON(w, status, body)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "err", err)
	}
}
