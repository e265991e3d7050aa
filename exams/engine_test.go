package exams

import (
	"testing"
	"time"

	"arborist-study-api/models"
)

func mcQuestion(id, correct int) models.Question {
	return models.Question{
		ID:            id,
		Type:          models.QuestionTypeMultipleChoice,
		CorrectAnswer: correct,
	}
}

func tfQuestion(id int, correct bool) models.Question {
	answer := 0
	if correct {
		answer = 1
	}
	return models.Question{
		ID:            id,
		Type:          models.QuestionTypeTrueFalse,
		CorrectAnswer: answer,
	}
}

func TestConfigFor(t *testing.T) {
	tests := []struct {
		examType  string
		duration  int
		questions int
		ok        bool
	}{
		{models.ExamTypePractice, 1800, 8, true},
		{models.ExamTypeFull, 3600, 20, true},
		{models.ExamTypeTopic, 600, 10, true},
		{"marathon", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		cfg, ok := ConfigFor(tt.examType)
		if ok != tt.ok {
			t.Errorf("ConfigFor(%q) ok = %v, want %v", tt.examType, ok, tt.ok)
			continue
		}
		if ok && (cfg.Duration != tt.duration || cfg.Questions != tt.questions) {
			t.Errorf("ConfigFor(%q) = %+v, want duration %d questions %d",
				tt.examType, cfg, tt.duration, tt.questions)
		}
	}
}

func TestCheckAnswer(t *testing.T) {
	mc := mcQuestion(1, 2)
	tf := tfQuestion(2, true)

	tests := []struct {
		name   string
		q      *models.Question
		answer interface{}
		want   bool
	}{
		{"mc correct int", &mc, 2, true},
		{"mc correct float64 from json", &mc, float64(2), true},
		{"mc wrong", &mc, 1, false},
		{"mc string rejected", &mc, "2", false},
		{"tf bool correct", &tf, true, true},
		{"tf bool wrong", &tf, false, false},
		{"tf index 0 means true", &tf, float64(0), true},
		{"tf index 1 means false", &tf, float64(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckAnswer(tt.q, tt.answer); got != tt.want {
				t.Errorf("CheckAnswer(%v) = %v, want %v", tt.answer, got, tt.want)
			}
		})
	}
}

func TestGradePositionalMapping(t *testing.T) {
	// Session order is 10, 20; answer keys refer to positions, not ids
	questions := []models.Question{mcQuestion(10, 0), mcQuestion(20, 3)}
	answers := map[string]interface{}{
		"0": float64(0),
		"1": float64(1),
	}

	graded := Grade(questions, answers)

	if graded.Total != 2 || graded.Correct != 1 || graded.Incorrect != 1 {
		t.Fatalf("got %d/%d correct of %d", graded.Correct, graded.Incorrect, graded.Total)
	}
	if graded.Score != 50 {
		t.Errorf("score = %d, want 50", graded.Score)
	}
	if !graded.Results[0].IsCorrect || graded.Results[1].IsCorrect {
		t.Errorf("per-question outcomes wrong: %+v", graded.Results)
	}
	if graded.Results[0].QuestionID != 10 || graded.Results[1].QuestionID != 20 {
		t.Errorf("result question ids not in session order: %+v", graded.Results)
	}
}

func TestGradeMissingAnswers(t *testing.T) {
	questions := []models.Question{mcQuestion(1, 0), tfQuestion(2, true)}

	graded := Grade(questions, map[string]interface{}{})

	if graded.Correct != 0 || graded.Score != 0 {
		t.Fatalf("missing answers graded as correct: %+v", graded)
	}
	if got := graded.Results[0].UserAnswer; got != -1 {
		t.Errorf("missing mc answer displayed as %v, want -1", got)
	}
	if got := graded.Results[1].UserAnswer; got != false {
		t.Errorf("missing tf answer displayed as %v, want false", got)
	}
}

func TestGradeNullAnswerIsMissing(t *testing.T) {
	questions := []models.Question{mcQuestion(1, 0)}
	graded := Grade(questions, map[string]interface{}{"0": nil})

	if graded.Correct != 0 {
		t.Fatalf("null answer graded as correct")
	}
	if got := graded.Results[0].UserAnswer; got != -1 {
		t.Errorf("null answer displayed as %v, want -1", got)
	}
}

func TestGradeCorrectAnswerWireFormat(t *testing.T) {
	questions := []models.Question{mcQuestion(1, 2), tfQuestion(2, false)}
	graded := Grade(questions, map[string]interface{}{})

	if got := graded.Results[0].CorrectAnswer; got != 2 {
		t.Errorf("mc correct answer = %v, want 2", got)
	}
	if got := graded.Results[1].CorrectAnswer; got != false {
		t.Errorf("tf correct answer = %v, want false", got)
	}
}

func TestGradeScoreRounding(t *testing.T) {
	questions := []models.Question{mcQuestion(1, 0), mcQuestion(2, 0), mcQuestion(3, 0)}

	// 1 of 3 -> 33.33 rounds to 33
	graded := Grade(questions, map[string]interface{}{"0": float64(0)})
	if graded.Score != 33 {
		t.Errorf("1/3 score = %d, want 33", graded.Score)
	}

	// 2 of 3 -> 66.67 rounds to 67
	graded = Grade(questions, map[string]interface{}{"0": float64(0), "1": float64(0)})
	if graded.Score != 67 {
		t.Errorf("2/3 score = %d, want 67", graded.Score)
	}
}

func TestGradeEmptySession(t *testing.T) {
	graded := Grade(nil, map[string]interface{}{})
	if graded.Score != 0 || graded.Total != 0 {
		t.Errorf("empty session graded as %+v", graded)
	}
}

func TestReorderByIDs(t *testing.T) {
	questions := []models.Question{mcQuestion(1, 0), mcQuestion(2, 0), mcQuestion(3, 0)}

	ordered := ReorderByIDs(questions, []int{3, 99, 1})

	if len(ordered) != 2 {
		t.Fatalf("got %d questions, want 2 (id 99 gone from the bank)", len(ordered))
	}
	if ordered[0].ID != 3 || ordered[1].ID != 1 {
		t.Errorf("order = [%d, %d], want [3, 1]", ordered[0].ID, ordered[1].ID)
	}
}

func TestShuffleKeepsAllQuestions(t *testing.T) {
	questions := make([]models.Question, 10)
	for i := range questions {
		questions[i] = mcQuestion(i+1, 0)
	}

	shuffled := Shuffle(questions)

	if len(shuffled) != len(questions) {
		t.Fatalf("shuffle changed length: %d", len(shuffled))
	}
	seen := make(map[int]bool)
	for _, q := range shuffled {
		seen[q.ID] = true
	}
	if len(seen) != len(questions) {
		t.Errorf("shuffle dropped or duplicated questions: %v", seen)
	}
	if questions[0].ID != 1 {
		t.Errorf("shuffle mutated its input")
	}
}

func TestLateBy(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	session := &models.ExamSession{StartTime: start, Duration: 1800}

	if late := LateBy(session, start.Add(10*time.Minute)); late != 0 {
		t.Errorf("in-window submission reported late by %v", late)
	}
	if late := LateBy(session, start.Add(30*time.Minute)); late != 0 {
		t.Errorf("submission at the deadline reported late by %v", late)
	}
	if late := LateBy(session, start.Add(35*time.Minute)); late != 5*time.Minute {
		t.Errorf("late by %v, want 5m", late)
	}
}
