package app

import (
	"math"

	"github.com/Apie2c/quiz-app/internal/domain"
)

// Score summarizes a finished (or ended early) session.
type Score struct {
	Correct    int    `json:"correct"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Grade      string `json:"grade"`
	Remarks    string `json:"remarks"`
}

// Remarks shown on the results screen.
const (
	RemarkOutstanding = "Outstanding performance! You have mastered this topic excellently."
	RemarkGreat       = "Great job! You have a strong understanding of the subject."
	RemarkGood        = "Good effort! Keep practicing to improve your knowledge."
	RemarkKeepGoing   = "Keep studying! Review the material and try again to improve your score."
)

var gradeLadder = []struct {
	min   int
	grade string
}{
	{90, "A+"},
	{85, "A"},
	{80, "A-"},
	{75, "B+"},
	{70, "B"},
	{65, "B-"},
	{60, "C+"},
	{55, "C"},
	{50, "C-"},
}

// CalculateScore scores answers against the full question count; questions without
// a record count as incorrect.
func CalculateScore(answers []domain.AnswerRecord, total int) Score {
	correct := 0
	for _, a := range answers {
		if a.Correct {
			correct++
		}
	}
	percentage := Percentage(correct, total)
	return Score{
		Correct:    correct,
		Total:      total,
		Percentage: percentage,
		Grade:      Grade(percentage),
		Remarks:    Remarks(percentage),
	}
}

// Percentage returns round(100*correct/total), or 0 for an empty quiz.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// Grade maps a percentage to a letter grade; thresholds are inclusive and checked top-down.
func Grade(percentage int) string {
	for _, step := range gradeLadder {
		if percentage >= step.min {
			return step.grade
		}
	}
	return "F"
}

// Remarks maps a percentage to one of four fixed remarks.
func Remarks(percentage int) string {
	switch {
	case percentage >= 90:
		return RemarkOutstanding
	case percentage >= 75:
		return RemarkGreat
	case percentage >= 60:
		return RemarkGood
	default:
		return RemarkKeepGoing
	}
}
