package models

import "time"

// Exam types
const (
	ExamTypePractice = "practice"
	ExamTypeFull     = "full"
	ExamTypeTopic    = "topic"
)

// ExamSession is one instance of a user taking an exam. QuestionIDs is frozen
// at creation and defines the positional answer mapping for the whole session:
// answer index i always refers to QuestionIDs[i], never to the store's natural
// order.
type ExamSession struct {
	ID          int        `json:"id"`
	ExamID      string     `json:"examId"`
	UserID      int        `json:"userId"`
	ExamType    string     `json:"examType"`
	TopicID     *int       `json:"topicId,omitempty"`
	QuestionIDs []int      `json:"questionIds"`
	StartTime   time.Time  `json:"startTime"`
	Duration    int        `json:"duration"` // seconds
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ExamStartRequest starts a new exam session
type ExamStartRequest struct {
	ExamType string `json:"examType"`
	TopicID  *int   `json:"topicId,omitempty"`
}

// ExamStartResponse returns the frozen question set in session order, without
// correct answers
type ExamStartResponse struct {
	ExamID    string     `json:"examId"`
	Questions []Question `json:"questions"`
	StartTime time.Time  `json:"startTime"`
	Duration  int        `json:"duration"`
}

// ExamSubmitRequest carries answers keyed by positional index ("0", "1", ...).
// Values are option indexes for multiple_choice and 0 (true) / 1 (false) or a
// plain boolean for true_false.
type ExamSubmitRequest struct {
	ExamID    string                 `json:"examId"`
	Answers   map[string]interface{} `json:"answers"`
	TimeSpent int                    `json:"timeSpent"` // seconds, client-reported
}

// QuestionResult is the per-question outcome of a graded exam
type QuestionResult struct {
	QuestionID    int              `json:"questionId"`
	UserAnswer    interface{}      `json:"userAnswer"`
	CorrectAnswer interface{}      `json:"correctAnswer"`
	IsCorrect     bool             `json:"isCorrect"`
	Explanation   MultilingualText `json:"explanation"`
}

// ExamSubmitResponse is the aggregate result of a graded exam
type ExamSubmitResponse struct {
	Score     int              `json:"score"`
	Correct   int              `json:"correct"`
	Incorrect int              `json:"incorrect"`
	Total     int              `json:"total"`
	Results   []QuestionResult `json:"results"`
}

// ExamResult is the immutable record of one completed exam
type ExamResult struct {
	ID             int       `json:"id"`
	UserID         int       `json:"-"`
	ExamType       string    `json:"examType"`
	TopicID        *int      `json:"topicId,omitempty"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	TimeSpent      int       `json:"timeSpent"`
	CompletedAt    time.Time `json:"completedAt"`
}

// ExamHistoryResponse lists a user's most recent results, newest first
type ExamHistoryResponse struct {
	Exams []ExamResult `json:"exams"`
	Total int          `json:"total"`
}
