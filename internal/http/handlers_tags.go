package http

import (
	"net/http"
	"strings"

	"moneytracker/internal/core"
	"moneytracker/internal/log"
)

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	kind := core.Kind(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("kind"))))
	if kind != "" && !kind.IsValid() {
		BadRequestError("invalid kind " + string(kind)).Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{"tags": s.app.Tags.FilterByKind(kind)}).Write(w)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	input, err := req.toInput()
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}
	tag, err := s.app.Tags.Add(r.Context(), input)
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Tag created",
		log.NewFields().WithTag(tag.ID, tag.Name).ToSlice()...)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/tags/"+tag.ID).
		Body(tag).
		Write(w)
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	tag, ok := s.app.Tags.Get(r.PathValue("id"))
	if !ok {
		NotFoundError("tag not found").Write(w)
		return
	}
	NewJSONResponse().Body(tag).Write(w)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	var req patchTagRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}

	tag, ok := s.app.Tags.Update(r.Context(), r.PathValue("id"), patch)
	if !ok {
		NotFoundError("tag not found").Write(w)
		return
	}
	NewJSONResponse().Body(tag).Write(w)
}

// handleDeleteTag removes the tag only; records keep the dangling id.
func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.app.Tags.Remove(r.Context(), id) {
		NotFoundError("tag not found").Write(w)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Tag deleted", log.FieldTagID, id)
	NewJSONResponse().Write(w)
}

func (s *Server) handleClearTags(w http.ResponseWriter, r *http.Request) {
	s.app.Tags.Clear(r.Context())
	log.FromContext(r.Context()).WarnContext(r.Context(), "All tags cleared", log.FieldOperation, log.OpClear)
	NewJSONResponse().Write(w)
}

func (s *Server) handleTagUsage(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"tags": s.app.Tags.UsageRanked(s.app.Records.All()),
	}).Write(w)
}

func (s *Server) handleTagColors(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{"colors": s.app.Tags.PresetColors()}).Write(w)
}
