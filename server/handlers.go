package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pthm/hxpart"
	hxrender "github.com/pthm/hxpart/lib/render"
)

func (s *Server) showItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	item, err := s.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.OnError(w, r, err)
		return
	}
	shapes, err := s.registry.BuildDisplay(ctx, item, hxpart.DisplayDetail)
	if err != nil {
		s.OnError(w, r, err)
		return
	}

	var notices []hxrender.Notice
	if r.URL.Query().Has("saved") {
		notices = append(notices, hxrender.Notice{Level: hxrender.NoticeSuccess, Message: "Saved."})
	}
	s.writePage(w, r, http.StatusOK, page{
		Title:   item.ContentType,
		Notices: notices,
		Body:    s.resolver.Component(item.ContentType, shapes),
	})
}

func (s *Server) editItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	item, err := s.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.OnError(w, r, err)
		return
	}
	shapes, err := s.registry.BuildEditor(ctx, item, hxpart.EditorContext{})
	if err != nil {
		s.OnError(w, r, err)
		return
	}

	tok := editToken{ID: item.ID, ContentType: item.ContentType, Version: item.Version}
	s.writeEditor(w, r, http.StatusOK, editPath(item.ID), tok, shapes)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	binder, err := hxpart.NewRequestBinder(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	tok, err := s.openToken(binder.Values().Get(TokenField), "", id)
	if err != nil {
		s.OnError(w, r, err)
		return
	}

	item, err := s.store.Get(ctx, id)
	if err != nil {
		s.OnError(w, r, err)
		return
	}
	if tok.ContentType != item.ContentType {
		s.OnError(w, r, fmt.Errorf("%w: issued for %s", ErrTokenInvalid, tok.ContentType))
		return
	}
	if tok.Version != item.Version {
		s.OnError(w, r, fmt.Errorf("%w: form from version %d, item at %d", ErrStale, tok.Version, item.Version))
		return
	}

	outcome, err := s.registry.UpdateEditor(ctx, item, hxpart.EditorContext{}, binder)
	if err != nil {
		s.OnError(w, r, err)
		return
	}
	if !outcome.Valid() {
		s.writeEditor(w, r, http.StatusUnprocessableEntity, editPath(id), tok, outcome.Shapes, invalidNotice)
		return
	}

	if err := s.store.Update(ctx, item); err != nil {
		s.OnError(w, r, err)
		return
	}
	s.logger.InfoContext(ctx, "content item updated", "id", item.ID, "content_type", item.ContentType, "version", item.Version)
	http.Redirect(w, r, itemPath(id)+"?saved=1", http.StatusSeeOther)
}

func (s *Server) newItem(w http.ResponseWriter, r *http.Request) {
	ct := chi.URLParam(r, "contentType")
	item := hxpart.NewContentItem(ct)

	shapes, err := s.registry.BuildEditor(r.Context(), item, hxpart.EditorContext{IsNew: true})
	if err != nil {
		s.OnError(w, r, err)
		return
	}

	tok := editToken{ID: item.ID, ContentType: ct}
	s.writeEditor(w, r, http.StatusOK, newPath(ct), tok, shapes)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ct := chi.URLParam(r, "contentType")

	binder, err := hxpart.NewRequestBinder(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	tok, err := s.openToken(binder.Values().Get(TokenField), ct, "")
	if err != nil {
		s.OnError(w, r, err)
		return
	}
	if _, err := uuid.Parse(tok.ID); err != nil {
		s.OnError(w, r, fmt.Errorf("%w: item id %q", ErrTokenInvalid, tok.ID))
		return
	}

	item := hxpart.NewContentItem(ct)
	item.ID = tok.ID

	outcome, err := s.registry.UpdateEditor(ctx, item, hxpart.EditorContext{IsNew: true}, binder)
	if err != nil {
		s.OnError(w, r, err)
		return
	}
	if !outcome.Valid() {
		s.writeEditor(w, r, http.StatusUnprocessableEntity, newPath(ct), tok, outcome.Shapes, invalidNotice)
		return
	}

	if err := s.store.Create(ctx, item); err != nil {
		s.OnError(w, r, err)
		return
	}
	s.logger.InfoContext(ctx, "content item created", "id", item.ID, "content_type", ct)
	http.Redirect(w, r, itemPath(item.ID)+"?saved=1", http.StatusSeeOther)
}

var invalidNotice = hxrender.Notice{Level: hxrender.NoticeError, Message: "Please correct the errors below."}

func itemPath(id string) string {
	return "/items/" + url.PathEscape(id)
}

func editPath(id string) string {
	return itemPath(id) + "/edit"
}

func newPath(contentType string) string {
	return "/new/" + url.PathEscape(contentType)
}
