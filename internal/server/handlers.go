package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/buildinfo"
	"github.com/matzehuels/masonry/pkg/catalog"
	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/core/window"
	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/httputil"
	"github.com/matzehuels/masonry/pkg/masonry"
	"github.com/matzehuels/masonry/pkg/observability"
	"github.com/matzehuels/masonry/pkg/pipeline"
	"github.com/matzehuels/masonry/pkg/session"
)

// =============================================================================
// Request and Response Types
// =============================================================================

// LayoutResponse is the result of POST /v1/layout.
type LayoutResponse struct {
	ItemsHash string            `json:"items_hash"`
	Board     board.Board       `json:"board"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
	Cached    CacheStatus       `json:"cached"`
}

// CacheStatus reports which pipeline stages were served from cache.
type CacheStatus struct {
	Load   bool `json:"load"`
	Layout bool `json:"layout"`
	Render bool `json:"render"`
}

// CreateSessionRequest is the body of POST /v1/sessions. Exactly one of
// Items and Source is required.
type CreateSessionRequest struct {
	Items  []layout.Item `json:"items,omitempty"`
	Source string        `json:"source,omitempty"`

	// Layout overrides fields of the server's layout configuration.
	Layout *masonry.Config `json:"layout,omitempty"`

	// Initial container measurement.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ViewportRequest is the body of PUT /v1/sessions/{id}/viewport. Omitted
// fields keep their current value.
type ViewportRequest struct {
	ScrollTop *float64 `json:"scroll_top,omitempty"`
	Width     *float64 `json:"width,omitempty"`
	Height    *float64 `json:"height,omitempty"`
}

// ItemsRequest is the body of PUT /v1/sessions/{id}/items. With Append the
// items are added to the end of the list; otherwise they replace it.
type ItemsRequest struct {
	Items  []layout.Item `json:"items"`
	Append bool          `json:"append,omitempty"`
}

// SessionResponse describes a session after a request has been applied.
type SessionResponse struct {
	ID          string                `json:"id"`
	Viewport    masonry.ViewportState `json:"viewport"`
	TrackHeight float64               `json:"track_height"`
	ItemCount   int                   `json:"item_count"`
	Loaded      int                   `json:"loaded,omitempty"`
	Exhausted   bool                  `json:"exhausted"`
	Visible     []window.Entry        `json:"visible"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  buildinfo.Version,
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := httputil.DecodeJSON(r, &opts); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.checkSource(opts.Source); err != nil && len(opts.Items) == 0 {
		s.writeError(w, r, err)
		return
	}
	opts.Logger = s.logger

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	artifacts := make(map[string]string, len(res.Artifacts))
	for format, data := range res.Artifacts {
		artifacts[format] = string(data)
	}
	_ = httputil.WriteJSON(w, http.StatusOK, LayoutResponse{
		ItemsHash: res.ItemsHash,
		Board:     res.Board,
		Artifacts: artifacts,
		Cached: CacheStatus{
			Load:   res.CacheInfo.LoadHit,
			Layout: res.CacheInfo.LayoutHit,
			Render: res.CacheInfo.RenderHit,
		},
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	// Decoding over a copy of the server config keeps fields the client
	// leaves out.
	base := s.layout
	req := CreateSessionRequest{Layout: &base}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.createSession(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, sess, 0)
}

func (s *Server) createSession(ctx context.Context, req CreateSessionRequest) (*session.Session, error) {
	if (len(req.Items) == 0) == (req.Source == "") {
		return nil, errors.New(errors.ErrCodeInvalidInput, "exactly one of items and source is required")
	}
	if err := errors.ValidateLength("width", req.Width); err != nil {
		return nil, err
	}
	if err := errors.ValidateLength("height", req.Height); err != nil {
		return nil, err
	}

	cfg := s.layout
	if req.Layout != nil {
		cfg = *req.Layout
	}

	items := req.Items
	var pager *catalog.Pager
	if req.Source != "" {
		if err := s.checkSource(req.Source); err != nil {
			return nil, err
		}
		src, err := catalog.Open(ctx, req.Source)
		if err != nil {
			return nil, err
		}
		pager = catalog.NewPager(src, s.batchSize)
		if items, err = pager.Next(ctx); err != nil {
			src.Close()
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "load %s", src.Name())
		}
	}
	if err := errors.ValidateItems(items); err != nil {
		if pager != nil {
			pager.Source().Close()
		}
		return nil, err
	}

	view, err := masonry.New(cfg, nil, masonry.WithItems(items), masonry.WithLogger(s.logger))
	if err != nil {
		if pager != nil {
			pager.Source().Close()
		}
		return nil, err
	}
	if req.Width > 0 {
		view.Resize(req.Width, req.Height)
	}

	sess, err := s.sessions.Create(ctx, view, pager)
	if err != nil {
		view.Close()
		if pager != nil {
			pager.Source().Close()
		}
		return nil, err
	}
	return sess, nil
}

func (s *Server) handleVisible(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.respond(w, r, http.StatusOK, sess, 0)
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req ViewportRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	fields := []struct {
		name  string
		value *float64
	}{
		{"scroll_top", req.ScrollTop},
		{"width", req.Width},
		{"height", req.Height},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := errors.ValidateLength(f.name, *f.value); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	view := sess.View
	if req.Width != nil || req.Height != nil {
		st := view.State()
		width, height := st.ContainerWidth, st.ViewportHeight
		if req.Width != nil {
			width = *req.Width
		}
		if req.Height != nil {
			height = *req.Height
		}
		view.Resize(width, height)
		// A resize changes the track; scroll against the new one.
		view.Flush()
	}
	if req.ScrollTop != nil {
		view.Scroll(*req.ScrollTop)
	}

	view.Flush()
	loaded, err := sess.LoadMore(r.Context())
	if err != nil {
		s.logger.Warn("load more failed", "session", sess.ID, "error", err)
	}
	s.respond(w, r, http.StatusOK, sess, loaded)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req ItemsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	next := req.Items
	if req.Append {
		next = append(sess.View.Items(), req.Items...)
	}
	if err := errors.ValidateItems(next); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Append {
		sess.View.AppendItems(req.Items...)
	} else {
		sess.View.SetItems(req.Items)
	}
	s.respond(w, r, http.StatusOK, sess, 0)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

// session looks up the session named in the route and writes an error
// response when it does not exist.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

// respond runs any pending layout pass and writes the session state.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, sess *session.Session, loaded int) {
	view := sess.View
	view.Flush()
	_ = httputil.WriteJSON(w, status, SessionResponse{
		ID:          sess.ID,
		Viewport:    view.State(),
		TrackHeight: view.TrackHeight(),
		ItemCount:   view.Len(),
		Loaded:      loaded,
		Exhausted:   sess.Pager == nil || sess.Pager.Exhausted(),
		Visible:     window.Collect(view.Visible()),
	})
}

// checkSource rejects sources the server does not open for clients.
func (s *Server) checkSource(source string) error {
	if source == "" {
		return errors.New(errors.ErrCodeInvalidInput, "items or source is required")
	}
	if err := errors.ValidateSourceURI(source); err != nil {
		return err
	}
	scheme, _, ok := strings.Cut(source, "://")
	if (!ok || scheme == "file") && !s.allowFiles {
		return errors.New(errors.ErrCodeInvalidSource, "file sources are not served")
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	route := r.URL.Path
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		route = rc.RoutePattern()
	}
	observability.HTTP().OnError(r.Context(), r.Method, route, err)
	if status := httputil.WriteError(w, err); status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "route", route, "error", err)
	}
}
