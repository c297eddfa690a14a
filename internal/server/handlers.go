package server

import (
	"net/http"
	"strings"

	"opentrends/internal/adaptation"
	"opentrends/internal/bookmarks"
	"opentrends/internal/model"
)

// getTrends handles GET /trends?mode=. It switches the active mode.
func (s *Server) getTrends(w http.ResponseWriter, r *http.Request) {
	mode, err := model.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.opts.Selector.Select(r.Context(), mode)
	if err != nil {
		writeError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, view)
}

// getCurrent handles GET /trends/current.
func (s *Server) getCurrent(w http.ResponseWriter, r *http.Request) {
	view, ok := s.opts.Selector.Current()
	if !ok {
		ErrorResponse(w, http.StatusNotFound, "no ranking has been loaded yet")
		return
	}
	JSONResponse(w, http.StatusOK, view)
}

// trigger handles POST /items/{id}/{kind}. It answers 202 whether or not a
// new task was started.
func (s *Server) trigger(kind adaptation.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		item, ok := s.findItem(r.Context(), id)
		if !ok {
			ErrorResponse(w, http.StatusNotFound, "item not found in any ranking")
			return
		}
		lang := strings.TrimSpace(r.URL.Query().Get("language"))
		if lang == "" {
			lang = s.opts.Language
		}
		started := s.opts.Registry.Trigger(adaptation.Request{Kind: kind, Item: item, Language: lang})
		res, _ := s.opts.Registry.Get(kind, id)
		JSONResponse(w, http.StatusAccepted, struct {
			Started bool `json:"started"`
			adaptation.Result
		}{started, res})
	}
}

// result handles GET /items/{id}/{kind}.
func (s *Server) result(kind adaptation.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := s.opts.Registry.Get(kind, r.PathValue("id"))
		if !ok {
			ErrorResponse(w, http.StatusNotFound, "nothing requested for this item")
			return
		}
		JSONResponse(w, http.StatusOK, res)
	}
}

// cancel handles DELETE /items/{id}/{kind}.
func (s *Server) cancel(kind adaptation.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.opts.Registry.Cancel(kind, r.PathValue("id")) {
			ErrorResponse(w, http.StatusNotFound, "no request in flight for this item")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type createBookmarkRequest struct {
	ItemID string      `json:"itemId"`
	Notes  string      `json:"notes"`
	Item   *model.Item `json:"item,omitempty"`
}

// listBookmarks handles GET /bookmarks.
func (s *Server) listBookmarks(w http.ResponseWriter, r *http.Request) {
	if !s.bookmarksEnabled(w) {
		return
	}
	list, err := s.opts.Bookmarks.List(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, list)
}

// createBookmark handles POST /bookmarks.
func (s *Server) createBookmark(w http.ResponseWriter, r *http.Request) {
	if !s.bookmarksEnabled(w) {
		return
	}
	var req createBookmarkRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	var item model.Item
	switch {
	case req.Item != nil && req.Item.ID != "":
		item = *req.Item
	case req.ItemID != "":
		found, ok := s.findItem(r.Context(), req.ItemID)
		if !ok {
			ErrorResponse(w, http.StatusNotFound, "item not found in any ranking")
			return
		}
		item = found
	default:
		ErrorResponse(w, http.StatusBadRequest, "itemId is required")
		return
	}
	b, err := s.opts.Bookmarks.Insert(r.Context(), bookmarks.NewBookmark{
		UserID:        s.userID(r),
		CatalogItemID: item.ID,
		ItemName:      item.Name,
		ItemPayload:   item,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	JSONResponse(w, http.StatusCreated, b)
}

// deleteBookmark handles DELETE /bookmarks/{id}.
func (s *Server) deleteBookmark(w http.ResponseWriter, r *http.Request) {
	if !s.bookmarksEnabled(w) {
		return
	}
	if err := s.opts.Bookmarks.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) bookmarksEnabled(w http.ResponseWriter) bool {
	if s.opts.Bookmarks == nil {
		JSONResponse(w, http.StatusServiceUnavailable, ErrorBody{
			Error:   http.StatusText(http.StatusServiceUnavailable),
			Message: "bookmark storage is not configured",
			Hint:    "set bookmarks.database_url or DATABASE_URL",
		})
		return false
	}
	return true
}
