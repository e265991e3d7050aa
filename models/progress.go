package models

// UserProgress is the user's cumulative study progress. It is a derived
// projection: averageScore and topicScores can always be rebuilt from the
// exam result history.
type UserProgress struct {
	CompletedQuestions int                `json:"completedQuestions"`
	TotalQuestions     int                `json:"totalQuestions"`
	AverageScore       float64            `json:"averageScore"`
	TopicScores        map[string]float64 `json:"topicScores"`
}

// NewUserProgress returns zeroed progress with the default target denominator
func NewUserProgress() UserProgress {
	return UserProgress{
		TotalQuestions: 100,
		TopicScores:    make(map[string]float64),
	}
}
