package exams

import (
	"testing"

	"arborist-study-api/models"
)

func TestApplyResultQuestionIncrements(t *testing.T) {
	tests := []struct {
		examType string
		want     int
	}{
		{models.ExamTypePractice, 8},
		{models.ExamTypeFull, 20},
		{models.ExamTypeTopic, 10},
	}

	for _, tt := range tests {
		p := models.NewUserProgress()
		ApplyResult(&p, tt.examType, nil, 50, nil)
		if p.CompletedQuestions != tt.want {
			t.Errorf("%s increment = %d, want %d", tt.examType, p.CompletedQuestions, tt.want)
		}
	}
}

func TestApplyResultTopicBestAttemptWins(t *testing.T) {
	p := models.NewUserProgress()
	topic := 5

	ApplyResult(&p, models.ExamTypeTopic, &topic, 60, nil)
	if p.TopicScores["5"] != 60 {
		t.Fatalf("topic score = %v, want 60", p.TopicScores["5"])
	}

	// A worse attempt never lowers the topic score
	ApplyResult(&p, models.ExamTypeTopic, &topic, 45, nil)
	if p.TopicScores["5"] != 60 {
		t.Errorf("topic score dropped to %v after a worse attempt", p.TopicScores["5"])
	}

	ApplyResult(&p, models.ExamTypeTopic, &topic, 80, nil)
	if p.TopicScores["5"] != 80 {
		t.Errorf("topic score = %v, want 80", p.TopicScores["5"])
	}
}

func TestApplyResultNonTopicLeavesTopicScores(t *testing.T) {
	p := models.NewUserProgress()
	topic := 3

	ApplyResult(&p, models.ExamTypePractice, &topic, 90, nil)
	if len(p.TopicScores) != 0 {
		t.Errorf("practice exam wrote topic scores: %v", p.TopicScores)
	}
}

func TestRecomputeAverage(t *testing.T) {
	p := models.NewUserProgress()

	RecomputeAverage(&p, []int{80, 90, 70})
	if p.AverageScore != 80.0 {
		t.Errorf("average = %v, want 80.0", p.AverageScore)
	}

	RecomputeAverage(&p, []int{85, 90})
	if p.AverageScore != 87.5 {
		t.Errorf("average = %v, want 87.5", p.AverageScore)
	}

	// Rounds to one decimal
	RecomputeAverage(&p, []int{70, 65, 60})
	if p.AverageScore != 65.0 {
		t.Errorf("average = %v, want 65.0", p.AverageScore)
	}
	RecomputeAverage(&p, []int{100, 100, 50})
	if p.AverageScore != 83.3 {
		t.Errorf("average = %v, want 83.3", p.AverageScore)
	}
}

func TestRecomputeAverageWindow(t *testing.T) {
	p := models.NewUserProgress()

	// 100 newest scores of 100, then 50 older zeros; only the window counts
	scores := make([]int, 0, 150)
	for i := 0; i < AverageWindow; i++ {
		scores = append(scores, 100)
	}
	for i := 0; i < 50; i++ {
		scores = append(scores, 0)
	}

	RecomputeAverage(&p, scores)
	if p.AverageScore != 100.0 {
		t.Errorf("average = %v, want 100.0 (older scores outside the window)", p.AverageScore)
	}
}

func TestRecomputeAverageEmptyHistory(t *testing.T) {
	p := models.NewUserProgress()
	p.AverageScore = 72.5

	RecomputeAverage(&p, nil)
	if p.AverageScore != 72.5 {
		t.Errorf("empty history changed the average to %v", p.AverageScore)
	}
}
