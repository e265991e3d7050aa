package handlers

import (
	"net/http"

	"arborist-study-api/db"
)

type UserHandlers struct {
	db *db.DB
}

// GetProgress returns the authenticated user's study progress projection
func (h *UserHandlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user := UserFromContext(r.Context())

	progress, err := h.db.GetUserProgress(user.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, progress)
}
