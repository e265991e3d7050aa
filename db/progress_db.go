package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"arborist-study-api/exams"
	"arborist-study-api/models"
	"arborist-study-api/utils"
)

// GetUserProgress returns the user's progress, default-initialized to zeros
// when no row exists yet
func (db *DB) GetUserProgress(userID int) (models.UserProgress, error) {
	var p models.UserProgress
	var topicScores string

	err := db.QueryRow(`
        SELECT completed_questions, total_questions, average_score, topic_scores
        FROM user_progress WHERE user_id = ?
    `, userID).Scan(&p.CompletedQuestions, &p.TotalQuestions, &p.AverageScore, &topicScores)

	if err != nil {
		if err == sql.ErrNoRows {
			return models.NewUserProgress(), nil
		}
		utils.LogError("GetUserProgress(%d) failed: %v", userID, err)
		return p, err
	}

	p.TopicScores = make(map[string]float64)
	if topicScores != "" {
		if err := json.Unmarshal([]byte(topicScores), &p.TopicScores); err != nil {
			utils.LogError("Corrupt topic_scores for user %d: %v", userID, err)
		}
	}

	return p, nil
}

// SaveUserProgress upserts the user's progress row. Update-then-insert rather
// than a dialect-specific upsert; a lost race between two first writes only
// affects the approximate projection, which is rebuildable from results.
func (db *DB) SaveUserProgress(userID int, p models.UserProgress) error {
	topicScores, err := json.Marshal(p.TopicScores)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	result, err := db.Exec(`
        UPDATE user_progress
        SET completed_questions = ?, total_questions = ?, average_score = ?, topic_scores = ?, updated_at = ?
        WHERE user_id = ?
    `, p.CompletedQuestions, p.TotalQuestions, p.AverageScore, string(topicScores), now, userID)
	if err != nil {
		utils.LogError("SaveUserProgress update failed: %v", err)
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	_, err = db.Exec(`
        INSERT INTO user_progress (user_id, completed_questions, total_questions, average_score, topic_scores, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, userID, p.CompletedQuestions, p.TotalQuestions, p.AverageScore, string(topicScores), now)
	if err != nil {
		utils.LogError("SaveUserProgress insert failed: %v", err)
	}
	return err
}

// UpdateProgressAfterExam folds a completed exam into the user's progress.
// Callers treat failures as best-effort: the exam result is already committed
// and the projection can be rebuilt later.
func (db *DB) UpdateProgressAfterExam(userID int, examType string, topicID *int, score int) error {
	progress, err := db.GetUserProgress(userID)
	if err != nil {
		return err
	}

	recentScores, err := db.GetRecentScores(userID, exams.AverageWindow)
	if err != nil {
		return err
	}

	exams.ApplyResult(&progress, examType, topicID, score, recentScores)

	if err := db.SaveUserProgress(userID, progress); err != nil {
		return err
	}

	utils.LogDB("Updated progress for user %d: %d questions, avg %.1f",
		userID, progress.CompletedQuestions, progress.AverageScore)
	return nil
}

// RebuildUserProgress recomputes the whole projection by replaying the user's
// exam result history oldest-first. Used by the repair job when the
// synchronous update after a submission failed.
func (db *DB) RebuildUserProgress(userID int) error {
	utils.LogDB("Rebuilding progress for user %d from result history", userID)

	rows, err := db.Query(`
        SELECT exam_type, topic_id, score FROM exam_results
        WHERE user_id = ?
        ORDER BY completed_at ASC
    `, userID)
	if err != nil {
		return err
	}
	defer rows.Close()

	progress := models.NewUserProgress()
	var scores []int

	for rows.Next() {
		var examType string
		var topicID sql.NullInt64
		var score int

		if err := rows.Scan(&examType, &topicID, &score); err != nil {
			return err
		}

		var topic *int
		if topicID.Valid {
			t := int(topicID.Int64)
			topic = &t
		}

		// Replay without the average: that is recomputed once at the end
		exams.ApplyResult(&progress, examType, topic, score, nil)
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Newest-first window for the average, same as the live update path
	recent := make([]int, 0, len(scores))
	for i := len(scores) - 1; i >= 0; i-- {
		recent = append(recent, scores[i])
	}
	exams.RecomputeAverage(&progress, recent)

	return db.SaveUserProgress(userID, progress)
}
