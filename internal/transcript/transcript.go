// Package transcript renders the plain-text report of a finished quiz session.
package transcript

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Apie2c/quiz-app/internal/app"
	"github.com/Apie2c/quiz-app/internal/domain"
)

// DateLayout is the date format of the report header.
const DateLayout = "2006-01-02"

// Report is everything the transcript needs: who played, the session and when it was exported.
type Report struct {
	User    string
	Session app.Session
	Date    time.Time
}

// Render writes the transcript of r to w. The output depends only on r.
func Render(w io.Writer, r Report) error {
	_, err := io.WriteString(w, Format(r))
	return err
}

// Format returns the transcript text.
func Format(r Report) string {
	s := r.Session
	score := s.Score()
	total := 0
	for _, a := range s.Answers {
		total += a.TimeTaken
	}

	var b strings.Builder
	b.WriteString("QUIZ TRANSCRIPT\n\n")
	fmt.Fprintf(&b, "Student: %s\n", r.User)
	fmt.Fprintf(&b, "Category: %s\n", s.Category)
	fmt.Fprintf(&b, "Sub-Category: %s\n", s.SubCategory)
	fmt.Fprintf(&b, "Date: %s\n\n", r.Date.Format(DateLayout))

	fmt.Fprintf(&b, "SCORE: %d/%d (%d%%)\n", score.Correct, score.Total, score.Percentage)
	fmt.Fprintf(&b, "GRADE: %s\n", score.Grade)
	fmt.Fprintf(&b, "REMARKS: %s\n\n", score.Remarks)
	fmt.Fprintf(&b, "Total Time: %dm %ds\n\n", total/60, total%60)

	b.WriteString("DETAILED RESULTS:\n\n")
	for i, a := range s.Answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= len(s.Questions) {
			continue
		}
		q := s.Questions[a.QuestionIndex]
		fmt.Fprintf(&b, "Question %d: %s\n", i+1, q.Text)
		fmt.Fprintf(&b, "Your Answer: %s\n", chosen(q, a))
		fmt.Fprintf(&b, "Correct Answer: %s\n", q.CorrectText)
		fmt.Fprintf(&b, "Time Taken: %ds\n", a.TimeTaken)
		fmt.Fprintf(&b, "Result: %s\n\n", verdict(a))
	}
	return b.String()
}

// Filename names the exported file after the user and the export time.
func Filename(user string, at time.Time) string {
	return fmt.Sprintf("quiz-transcript-%s-%d.txt", sanitize(user), at.UnixMilli())
}

func chosen(q app.PlayQuestion, a domain.AnswerRecord) string {
	if a.SelectedOption == nil || *a.SelectedOption < 0 || *a.SelectedOption >= len(q.Options) {
		return "Not answered"
	}
	return q.Options[*a.SelectedOption]
}

func verdict(a domain.AnswerRecord) string {
	result := "Incorrect ✗"
	if a.Correct {
		result = "Correct ✓"
	}
	switch a.Outcome {
	case domain.OutcomeSkipped:
		result += " (skipped)"
	case domain.OutcomeTimedOut:
		result += " (timed out)"
	}
	return result
}

// sanitize keeps file names portable.
func sanitize(user string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, user)
}
