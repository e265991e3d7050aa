package handlers

import (
	"net/http"
	"strconv"

	"arborist-study-api/apperr"
	"arborist-study-api/db"
	"arborist-study-api/models"
)

type QuestionHandlers struct {
	db *db.DB
}

// ListTopics returns the fixed exam topic breakdown
func (h *QuestionHandlers) ListTopics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"topics": models.ExamTopics})
}

// ListQuestions returns the question bank, optionally filtered by ?topicId=N.
// Correct answers are never included.
func (h *QuestionHandlers) ListQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	var topicFilter *int
	if raw := r.URL.Query().Get("topicId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || !models.ValidTopicID(id) {
			respondWithError(w, apperr.Validationf("Invalid topicId: %s", raw))
			return
		}
		topicFilter = &id
	}

	questions, err := h.db.ListQuestions(topicFilter)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}

	respondWithJSON(w, http.StatusOK, models.QuestionsResponse{
		Questions: questions,
		Total:     len(questions),
	})
}
