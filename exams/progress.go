package exams

import (
	"math"
	"strconv"

	"arborist-study-api/models"
)

// AverageWindow is the number of most recent exam results the running average
// is recomputed over.
const AverageWindow = 100

// questionIncrements approximates "questions answered" per exam type; it is a
// fixed increment keyed by type, not an exact count of the session's total.
var questionIncrements = map[string]int{
	models.ExamTypePractice: 8,
	models.ExamTypeFull:     20,
	models.ExamTypeTopic:    10,
}

// ApplyResult folds one completed exam into p. For topic exams the topic score
// only ever goes up (best attempt wins). recentScores are the user's most
// recent result scores including this exam, newest first; the average is
// recomputed from scratch over at most AverageWindow of them and rounded to
// one decimal.
func ApplyResult(p *models.UserProgress, examType string, topicID *int, score int, recentScores []int) {
	if p.TopicScores == nil {
		p.TopicScores = make(map[string]float64)
	}

	if examType == models.ExamTypeTopic && topicID != nil {
		key := strconv.Itoa(*topicID)
		if s := float64(score); s > p.TopicScores[key] {
			p.TopicScores[key] = s
		}
	}

	p.CompletedQuestions += questionIncrements[examType]

	RecomputeAverage(p, recentScores)
}

// RecomputeAverage recomputes the running average from scratch over at most
// AverageWindow of recentScores (newest first), rounded to one decimal. An
// empty history leaves the stored average untouched.
func RecomputeAverage(p *models.UserProgress, recentScores []int) {
	if len(recentScores) > AverageWindow {
		recentScores = recentScores[:AverageWindow]
	}
	if len(recentScores) == 0 {
		return
	}

	sum := 0
	for _, s := range recentScores {
		sum += s
	}
	p.AverageScore = math.Round(float64(sum)/float64(len(recentScores))*10) / 10
}
