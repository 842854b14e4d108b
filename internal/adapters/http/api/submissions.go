package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/commitwatch/internal/domain/snapshot"
	"github.com/okian/commitwatch/internal/domain/submission"
)

// SubmissionsDependencies defines the interface for submission reads.
type SubmissionsDependencies interface {
	Submissions(ctx context.Context) snapshot.Document
}

// SubmissionsHandler serves the last resolved snapshot.
type SubmissionsHandler struct {
	deps SubmissionsDependencies
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(deps SubmissionsDependencies) *SubmissionsHandler {
	return &SubmissionsHandler{deps: deps}
}

// HandleList handles GET /submissions[?contest=NAME] requests.
func (h *SubmissionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	doc := h.deps.Submissions(r.Context())

	if name := r.URL.Query().Get("contest"); name != "" {
		contest, err := submission.ParseContest(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
			return
		}
		filtered := make(snapshot.Document, 0, len(doc))
		for _, rec := range doc {
			if rec.Contest == contest.String() {
				filtered = append(filtered, rec)
			}
		}
		doc = filtered
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleGet handles GET /submissions/{uid} requests.
func (h *SubmissionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("uid")
	uid, err := strconv.Atoi(path)
	if err != nil || uid < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: uid %q", ErrBadRequest, path))
		return
	}
	for _, rec := range h.deps.Submissions(r.Context()) {
		if rec.UID == uid {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w: uid %d", ErrNotFound, uid))
}
