package models

import "time"

// Question types
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
)

// Difficulty levels
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// MultilingualText holds the Spanish and English variants of a piece of content
type MultilingualText struct {
	ES string `json:"es"`
	EN string `json:"en"`
}

// MultilingualOptions holds the answer options per language for multiple choice
type MultilingualOptions struct {
	ES []string `json:"es"`
	EN []string `json:"en"`
}

// Question represents a question in the bank. CorrectAnswer is never sent to
// clients directly: for multiple_choice it is the option index, for true_false
// it is 1 (true) or 0 (false).
type Question struct {
	ID            int                  `json:"id"`
	TopicID       int                  `json:"topicId"`
	Type          string               `json:"type"`
	Question      MultilingualText     `json:"question"`
	Options       *MultilingualOptions `json:"options,omitempty"`
	CorrectAnswer int                  `json:"-"`
	Explanation   MultilingualText     `json:"explanation"`
	Difficulty    string               `json:"difficulty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// CorrectValue returns the wire representation of the correct answer: an
// option index for multiple_choice, a boolean for true_false.
func (q *Question) CorrectValue() interface{} {
	if q.Type == QuestionTypeTrueFalse {
		return q.CorrectAnswer == 1
	}
	return q.CorrectAnswer
}

// QuestionsResponse is the read surface of the question bank
type QuestionsResponse struct {
	Questions []Question `json:"questions"`
	Total     int        `json:"total"`
}
