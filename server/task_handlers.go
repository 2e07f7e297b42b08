package server

import (
	"net/http"
	"time"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
	"github.com/29rl/task-manager-fullstack/tasks"
)

// ListTasksHandler returns the caller's tasks, newest first. The repo
// guarantees the result only ever contains the owner's records.
func (s *Server) ListTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.repos.Tasks.ListByOwner(userIDFromContext(r.Context()))
		if err != nil {
			s.logger.Error().Err(err).Msg("task list failed")
			writeDetailError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// CreateTaskHandler creates a task owned by the caller.
func (s *Server) CreateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft tasks.Draft
		if err := decodeJSON(r, &draft); err != nil {
			writeDetailError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := draft.Validate(); err != nil {
			var verr *apperrors.ValidationError
			if apperrors.As(err, &verr) {
				writeValidationError(w, verr)
				return
			}
			writeDetailError(w, http.StatusBadRequest, err.Error())
			return
		}

		now := time.Now()
		task := &tasks.Task{
			Title:       draft.Title,
			Description: draft.Description,
			Status:      draft.Status,
			CreatedAt:   now,
			UpdatedAt:   now,
			OwnerID:     userIDFromContext(r.Context()),
		}
		if err := s.repos.Tasks.Create(task); err != nil {
			s.logger.Error().Err(err).Msg("task create failed")
			writeDetailError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusCreated, task)
	}
}

// GetTaskHandler fetches one of the caller's tasks by id.
func (s *Server) GetTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := s.repos.Tasks.GetByID(userIDFromContext(r.Context()), r.PathValue("id"))
		if err != nil {
			s.writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

// ReplaceTaskHandler replaces a task's client-editable fields. A task that
// exists but belongs to another user is indistinguishable from a missing one.
func (s *Server) ReplaceTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := userIDFromContext(r.Context())

		existing, err := s.repos.Tasks.GetByID(ownerID, r.PathValue("id"))
		if err != nil {
			s.writeTaskError(w, err)
			return
		}

		var draft tasks.Draft
		if err := decodeJSON(r, &draft); err != nil {
			writeDetailError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := draft.Validate(); err != nil {
			var verr *apperrors.ValidationError
			if apperrors.As(err, &verr) {
				writeValidationError(w, verr)
				return
			}
			writeDetailError(w, http.StatusBadRequest, err.Error())
			return
		}

		existing.Title = draft.Title
		existing.Description = draft.Description
		existing.Status = draft.Status
		existing.UpdatedAt = time.Now()

		if err := s.repos.Tasks.Update(existing); err != nil {
			s.writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, existing)
	}
}

// DeleteTaskHandler deletes one of the caller's tasks.
func (s *Server) DeleteTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.repos.Tasks.Delete(userIDFromContext(r.Context()), r.PathValue("id"))
		if err != nil {
			s.writeTaskError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) writeTaskError(w http.ResponseWriter, err error) {
	if apperrors.Is(err, apperrors.ErrNotFound) {
		writeDetailError(w, http.StatusNotFound, "not found")
		return
	}
	s.logger.Error().Err(err).Msg("task operation failed")
	writeDetailError(w, http.StatusInternalServerError, "internal server error")
}
