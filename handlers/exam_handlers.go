package handlers

import (
	"net/http"
	"time"

	"arborist-study-api/apperr"
	"arborist-study-api/db"
	"arborist-study-api/exams"
	"arborist-study-api/jobs"
	"arborist-study-api/models"
	"arborist-study-api/utils"

	"github.com/google/uuid"
)

const historyLimit = 50

type ExamHandlers struct {
	db         *db.DB
	jobs       *jobs.JobManager
	latePolicy string
}

// StartExam creates a new exam session. The question set is sampled with 2x
// oversampling, shuffled and truncated to the configured count, then frozen:
// its order defines the positional answer mapping for the whole session.
func (h *ExamHandlers) StartExam(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	user := UserFromContext(r.Context())

	var req models.ExamStartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	cfg, ok := exams.ConfigFor(req.ExamType)
	if !ok {
		respondWithError(w, apperr.Validationf("Invalid exam type: %s", req.ExamType))
		return
	}

	var topicFilter *int
	if req.ExamType == models.ExamTypeTopic {
		if req.TopicID == nil || !models.ValidTopicID(*req.TopicID) {
			respondWithError(w, apperr.Validationf("A valid topicId is required for topic exams"))
			return
		}
		topicFilter = req.TopicID
	}

	pool, err := h.db.SampleQuestions(topicFilter, cfg.Questions*2)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if len(pool) == 0 {
		respondWithError(w, apperr.NotFoundf("No questions found for the specified criteria"))
		return
	}

	selected := exams.Shuffle(pool)
	if len(selected) > cfg.Questions {
		selected = selected[:cfg.Questions]
	}
	if len(selected) < cfg.Questions {
		utils.LogInfo("Question bank short for %s exam: wanted %d, got %d", req.ExamType, cfg.Questions, len(selected))
	}

	questionIDs := make([]int, len(selected))
	for i, q := range selected {
		questionIDs[i] = q.ID
	}

	now := time.Now().UTC()
	session := &models.ExamSession{
		ExamID:      uuid.New().String(),
		UserID:      user.ID,
		ExamType:    req.ExamType,
		TopicID:     topicFilter,
		QuestionIDs: questionIDs,
		StartTime:   now,
		Duration:    cfg.Duration,
		CreatedAt:   now,
	}
	if err := h.db.CreateExamSession(session); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, models.ExamStartResponse{
		ExamID:    session.ExamID,
		Questions: selected,
		StartTime: session.StartTime,
		Duration:  session.Duration,
	})
}

// SubmitExam grades a session's answers against its frozen question order and
// completes it. The check-and-set on the session guarantees at most one
// submission wins; the loser gets a 404.
func (h *ExamHandlers) SubmitExam(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	user := UserFromContext(r.Context())

	var req models.ExamSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if req.ExamID == "" {
		respondWithError(w, apperr.Validationf("examId is required"))
		return
	}
	if req.Answers == nil {
		req.Answers = map[string]interface{}{}
	}

	session, err := h.db.GetOpenExamSession(req.ExamID, user.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	now := time.Now().UTC()
	if late := exams.LateBy(session, now); late > 0 {
		if h.latePolicy == exams.LatePolicyReject {
			respondWithError(w, apperr.Validationf("Exam time limit exceeded"))
			return
		}
		utils.LogInfo("Accepting late submission for exam %s (%v past deadline)", session.ExamID, late)
	}

	questions, err := h.db.GetQuestionsByIDs(session.QuestionIDs)
	if err != nil {
		respondWithError(w, err)
		return
	}
	ordered := exams.ReorderByIDs(questions, session.QuestionIDs)

	graded := exams.Grade(ordered, req.Answers)

	if err := h.db.CompleteExamSession(req.ExamID, user.ID, now); err != nil {
		respondWithError(w, err)
		return
	}

	result := &models.ExamResult{
		UserID:         user.ID,
		ExamType:       session.ExamType,
		TopicID:        session.TopicID,
		Score:          graded.Score,
		CorrectAnswers: graded.Correct,
		TotalQuestions: graded.Total,
		TimeSpent:      req.TimeSpent,
		CompletedAt:    now,
	}
	if err := h.db.InsertExamResult(result, req.Answers, session.QuestionIDs); err != nil {
		respondWithError(w, err)
		return
	}

	// The result is committed; a progress failure must not fail the submission
	if err := h.db.UpdateProgressAfterExam(user.ID, session.ExamType, session.TopicID, graded.Score); err != nil {
		utils.LogError("Progress update failed for user %d after exam %s: %v", user.ID, session.ExamID, err)
		if h.jobs != nil {
			if qerr := h.jobs.EnqueueProgressRebuild(user.ID); qerr != nil {
				utils.LogError("Failed to queue progress rebuild for user %d: %v", user.ID, qerr)
			}
		}
	}

	respondWithJSON(w, http.StatusOK, graded)
}

func (h *ExamHandlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user := UserFromContext(r.Context())

	results, total, err := h.db.GetExamHistory(user.ID, historyLimit)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if results == nil {
		results = []models.ExamResult{}
	}

	respondWithJSON(w, http.StatusOK, models.ExamHistoryResponse{
		Exams: results,
		Total: total,
	})
}
