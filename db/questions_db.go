package db

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"arborist-study-api/apperr"
	"arborist-study-api/models"
	"arborist-study-api/utils"
)

const questionColumns = `id, topic_id, type, question_es, question_en, options_es, options_en,
	correct_answer, explanation_es, explanation_en, difficulty, created_at`

func scanQuestion(scan func(dest ...interface{}) error) (models.Question, error) {
	var q models.Question
	var optionsES, optionsEN sql.NullString

	err := scan(&q.ID, &q.TopicID, &q.Type, &q.Question.ES, &q.Question.EN,
		&optionsES, &optionsEN, &q.CorrectAnswer,
		&q.Explanation.ES, &q.Explanation.EN, &q.Difficulty, &q.CreatedAt)
	if err != nil {
		return q, err
	}

	if optionsES.Valid || optionsEN.Valid {
		opts := &models.MultilingualOptions{}
		if optionsES.Valid && optionsES.String != "" {
			json.Unmarshal([]byte(optionsES.String), &opts.ES)
		}
		if optionsEN.Valid && optionsEN.String != "" {
			json.Unmarshal([]byte(optionsEN.String), &opts.EN)
		}
		q.Options = opts
	}

	return q, nil
}

func (db *DB) CreateQuestion(q *models.Question) error {
	var optionsES, optionsEN interface{}
	if q.Options != nil {
		es, _ := json.Marshal(q.Options.ES)
		en, _ := json.Marshal(q.Options.EN)
		optionsES, optionsEN = string(es), string(en)
	}

	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	id, err := db.ExecReturningID(`
        INSERT INTO questions (topic_id, type, question_es, question_en, options_es, options_en,
                               correct_answer, explanation_es, explanation_en, difficulty, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, q.TopicID, q.Type, q.Question.ES, q.Question.EN, optionsES, optionsEN,
		q.CorrectAnswer, q.Explanation.ES, q.Explanation.EN, q.Difficulty, q.CreatedAt)
	if err != nil {
		utils.LogError("CreateQuestion failed: %v", err)
		return err
	}

	q.ID = int(id)
	return nil
}

func (db *DB) GetQuestionByID(id int) (*models.Question, error) {
	row := db.QueryRow(`SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)

	q, err := scanQuestion(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFoundf("Question not found")
		}
		utils.LogError("GetQuestionByID(%d) failed: %v", id, err)
		return nil, err
	}
	return &q, nil
}

// GetQuestionsByIDs fetches the given questions in the store's natural order.
// Callers grading an exam must re-order the result to the session's frozen
// sequence themselves.
func (db *DB) GetQuestionsByIDs(ids []int) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.Query(`SELECT `+questionColumns+` FROM questions WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		utils.LogError("GetQuestionsByIDs failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows.Scan)
		if err != nil {
			utils.LogError("Failed to scan question row: %v", err)
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SampleQuestions draws up to limit random questions, filtered by topic when
// topicID is set
func (db *DB) SampleQuestions(topicID *int, limit int) ([]models.Question, error) {
	utils.LogDB("Sampling up to %d questions (topic filter: %v)", limit, topicID)
	start := time.Now()

	query := `SELECT ` + questionColumns + ` FROM questions`
	var args []interface{}
	if topicID != nil {
		query += ` WHERE topic_id = ?`
		args = append(args, *topicID)
	}
	query += ` ORDER BY ` + db.dialect.RandomFunction() + ` LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		utils.LogError("SampleQuestions failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows.Scan)
		if err != nil {
			utils.LogError("Failed to scan question row: %v", err)
			return nil, err
		}
		questions = append(questions, q)
	}

	utils.LogDB("Sampled %d questions in %v", len(questions), time.Since(start))
	return questions, rows.Err()
}

// ListQuestions returns the question bank, optionally filtered by topic
func (db *DB) ListQuestions(topicID *int) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions`
	var args []interface{}
	if topicID != nil {
		query += ` WHERE topic_id = ?`
		args = append(args, *topicID)
	}
	query += ` ORDER BY topic_id, id`

	rows, err := db.Query(query, args...)
	if err != nil {
		utils.LogError("ListQuestions failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows.Scan)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (db *DB) CountQuestions() (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}
