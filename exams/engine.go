package exams

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"arborist-study-api/models"
)

// Config is the fixed policy for one exam type. The table is a policy
// constant, not user-configurable.
type Config struct {
	Duration  int // seconds
	Questions int
}

var configs = map[string]Config{
	models.ExamTypePractice: {Duration: 1800, Questions: 8},
	models.ExamTypeFull:     {Duration: 3600, Questions: 20},
	models.ExamTypeTopic:    {Duration: 600, Questions: 10},
}

// ConfigFor returns the session configuration for examType
func ConfigFor(examType string) (Config, bool) {
	cfg, ok := configs[examType]
	return cfg, ok
}

// Late-submission policy. The source system only logged late submissions;
// reject turns them into a validation failure instead.
const (
	LatePolicyAccept = "accept"
	LatePolicyReject = "reject"
)

// LateBy returns how far past its time window the session is at now, or 0 if
// still within the window.
func LateBy(session *models.ExamSession, now time.Time) time.Duration {
	deadline := session.StartTime.Add(time.Duration(session.Duration) * time.Second)
	if now.After(deadline) {
		return now.Sub(deadline)
	}
	return 0
}

// Shuffle returns a copy of questions in random order (Fisher-Yates)
func Shuffle(questions []models.Question) []models.Question {
	shuffled := make([]models.Question, len(questions))
	copy(shuffled, questions)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled
}

// ReorderByIDs arranges questions to match the frozen id sequence of a
// session, skipping ids no longer present in the store. Grading must use the
// session's positional mapping, never the store's natural order.
func ReorderByIDs(questions []models.Question, ids []int) []models.Question {
	byID := make(map[int]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered
}

// CheckAnswer reports whether the submitted value answers q correctly.
// multiple_choice compares the integer option index. true_false interprets 0
// as true and 1 as false; a plain boolean is compared as-is.
func CheckAnswer(q *models.Question, answer interface{}) bool {
	switch q.Type {
	case models.QuestionTypeMultipleChoice:
		idx, ok := answerIndex(answer)
		return ok && idx == q.CorrectAnswer

	case models.QuestionTypeTrueFalse:
		var submitted bool
		if b, ok := answer.(bool); ok {
			submitted = b
		} else {
			idx, ok := answerIndex(answer)
			if !ok {
				return false
			}
			submitted = idx == 0
		}
		return submitted == (q.CorrectAnswer == 1)
	}

	return false
}

// answerIndex coerces a submitted answer to an integer index. encoding/json
// decodes numbers in an untyped map as float64.
func answerIndex(answer interface{}) (int, bool) {
	switch v := answer.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Grade grades answers against the session's frozen question order. Position i
// refers to questions[i]. A missing (or null) answer is incorrect and is
// reported as -1 for multiple_choice, false for true_false.
func Grade(questions []models.Question, answers map[string]interface{}) models.ExamSubmitResponse {
	results := make([]models.QuestionResult, 0, len(questions))
	correct := 0

	for i := range questions {
		q := &questions[i]

		answer, answered := answers[strconv.Itoa(i)]
		if answer == nil {
			answered = false
		}

		isCorrect := answered && CheckAnswer(q, answer)
		if isCorrect {
			correct++
		}

		display := answer
		if !answered {
			if q.Type == models.QuestionTypeMultipleChoice {
				display = -1
			} else {
				display = false
			}
		}

		results = append(results, models.QuestionResult{
			QuestionID:    q.ID,
			UserAnswer:    display,
			CorrectAnswer: q.CorrectValue(),
			IsCorrect:     isCorrect,
			Explanation:   q.Explanation,
		})
	}

	total := len(questions)
	score := 0
	if total > 0 {
		score = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return models.ExamSubmitResponse{
		Score:     score,
		Correct:   correct,
		Incorrect: total - correct,
		Total:     total,
		Results:   results,
	}
}
