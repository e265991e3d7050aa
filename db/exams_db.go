package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"arborist-study-api/apperr"
	"arborist-study-api/models"
	"arborist-study-api/utils"
)

func (db *DB) CreateExamSession(s *models.ExamSession) error {
	utils.LogDB("Creating exam session %s for user %d (%s)", s.ExamID, s.UserID, s.ExamType)

	questionIDs, err := json.Marshal(s.QuestionIDs)
	if err != nil {
		return err
	}

	id, err := db.ExecReturningID(`
        INSERT INTO exam_sessions (exam_id, user_id, exam_type, topic_id, question_ids,
                                   start_time, duration, is_completed, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, FALSE, ?)
    `, s.ExamID, s.UserID, s.ExamType, s.TopicID, string(questionIDs),
		s.StartTime, s.Duration, s.CreatedAt)
	if err != nil {
		utils.LogError("CreateExamSession failed: %v", err)
		return err
	}

	s.ID = int(id)
	return nil
}

// GetOpenExamSession looks up an uncompleted session owned by userID. An
// unknown exam id, someone else's session and an already-completed session
// are indistinguishable to the caller.
func (db *DB) GetOpenExamSession(examID string, userID int) (*models.ExamSession, error) {
	var s models.ExamSession
	var topicID sql.NullInt64
	var questionIDs string
	var completedAt sql.NullTime

	err := db.QueryRow(`
        SELECT id, exam_id, user_id, exam_type, topic_id, question_ids,
               start_time, duration, is_completed, completed_at, created_at
        FROM exam_sessions
        WHERE exam_id = ? AND user_id = ? AND is_completed = FALSE
    `, examID, userID).Scan(&s.ID, &s.ExamID, &s.UserID, &s.ExamType, &topicID, &questionIDs,
		&s.StartTime, &s.Duration, &s.IsCompleted, &completedAt, &s.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFoundf("Exam session not found or already completed")
		}
		utils.LogError("GetOpenExamSession(%s) failed: %v", examID, err)
		return nil, err
	}

	if topicID.Valid {
		t := int(topicID.Int64)
		s.TopicID = &t
	}
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Time
	}
	if err := json.Unmarshal([]byte(questionIDs), &s.QuestionIDs); err != nil {
		utils.LogError("Corrupt question_ids for session %s: %v", examID, err)
		return nil, err
	}

	return &s, nil
}

// CompleteExamSession flips is_completed with an atomic check-and-set. Losing
// the race to a concurrent submission surfaces as NotFound, which enforces
// at-most-one submission per session.
func (db *DB) CompleteExamSession(examID string, userID int, completedAt time.Time) error {
	result, err := db.Exec(`
        UPDATE exam_sessions
        SET is_completed = TRUE, completed_at = ?
        WHERE exam_id = ? AND user_id = ? AND is_completed = FALSE
    `, completedAt, examID, userID)
	if err != nil {
		utils.LogError("CompleteExamSession(%s) failed: %v", examID, err)
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFoundf("Exam session not found or already completed")
	}
	return nil
}

// InsertExamResult records the immutable outcome of one completed exam,
// including the frozen question ids and the raw answers for audit
func (db *DB) InsertExamResult(r *models.ExamResult, answers map[string]interface{}, questionIDs []int) error {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	idsJSON, err := json.Marshal(questionIDs)
	if err != nil {
		return err
	}

	id, err := db.ExecReturningID(`
        INSERT INTO exam_results (user_id, exam_type, topic_id, score, correct_answers,
                                  total_questions, time_spent, answers, question_ids,
                                  completed_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, r.UserID, r.ExamType, r.TopicID, r.Score, r.CorrectAnswers,
		r.TotalQuestions, r.TimeSpent, string(answersJSON), string(idsJSON),
		r.CompletedAt, r.CompletedAt)
	if err != nil {
		utils.LogError("InsertExamResult failed: %v", err)
		return err
	}

	r.ID = int(id)
	return nil
}

// GetExamHistory returns the user's most recent results, newest first, plus
// the total result count
func (db *DB) GetExamHistory(userID, limit int) ([]models.ExamResult, int, error) {
	rows, err := db.Query(`
        SELECT id, user_id, exam_type, topic_id, score, correct_answers,
               total_questions, time_spent, completed_at
        FROM exam_results
        WHERE user_id = ?
        ORDER BY completed_at DESC
        LIMIT ?
    `, userID, limit)
	if err != nil {
		utils.LogError("GetExamHistory failed: %v", err)
		return nil, 0, err
	}
	defer rows.Close()

	var results []models.ExamResult
	for rows.Next() {
		var r models.ExamResult
		var topicID sql.NullInt64

		err := rows.Scan(&r.ID, &r.UserID, &r.ExamType, &topicID, &r.Score,
			&r.CorrectAnswers, &r.TotalQuestions, &r.TimeSpent, &r.CompletedAt)
		if err != nil {
			utils.LogError("Failed to scan exam result row: %v", err)
			return nil, 0, err
		}
		if topicID.Valid {
			t := int(topicID.Int64)
			r.TopicID = &t
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM exam_results WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// GetRecentScores returns the user's most recent result scores, newest first
func (db *DB) GetRecentScores(userID, limit int) ([]int, error) {
	rows, err := db.Query(`
        SELECT score FROM exam_results
        WHERE user_id = ?
        ORDER BY completed_at DESC
        LIMIT ?
    `, userID, limit)
	if err != nil {
		utils.LogError("GetRecentScores failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
