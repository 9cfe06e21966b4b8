package domain

import "time"

const (
	// DefaultTimeLimit applies to questions stored without a time limit.
	DefaultTimeLimit = 30
	// OptionCount is the number of options every question carries.
	OptionCount = 4
	// DocumentID is the fixed key the category tree is persisted under.
	DocumentID = "quiz-categories"
)

// Question models an MCQ question. Field names on the wire follow the stored document.
type Question struct {
	Text         string   `json:"question" yaml:"question" bson:"question" validate:"required"`
	Options      []string `json:"options" yaml:"options" bson:"options" validate:"len=4,dive,required"`
	CorrectIndex int      `json:"correct" yaml:"correct" bson:"correct" validate:"gte=0,lte=3"`
	TimeLimit    int      `json:"timeLimit,omitempty" yaml:"timeLimit,omitempty" bson:"timeLimit,omitempty" validate:"gte=0"`
}

// Limit returns the countdown length in seconds.
func (q Question) Limit() int {
	if q.TimeLimit > 0 {
		return q.TimeLimit
	}
	return DefaultTimeLimit
}

// CorrectText returns the text of the correct option, or "" when the index is out of range.
func (q Question) CorrectText() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

func (q Question) clone() Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}

// SubCategoryMap maps a sub-category name to its ordered questions.
type SubCategoryMap map[string][]Question

// CategoryTree is the whole quiz content, nested by category then sub-category.
type CategoryTree map[string]SubCategoryMap

// Clone returns a deep copy of the tree.
func (t CategoryTree) Clone() CategoryTree {
	if t == nil {
		return nil
	}
	out := make(CategoryTree, len(t))
	for category, subs := range t {
		copied := make(SubCategoryMap, len(subs))
		for sub, questions := range subs {
			qs := make([]Question, len(questions))
			for i, q := range questions {
				qs[i] = q.clone()
			}
			copied[sub] = qs
		}
		out[category] = copied
	}
	return out
}

// Questions returns the question list of a sub-category.
func (t CategoryTree) Questions(category, subCategory string) ([]Question, error) {
	subs, ok := t[category]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	questions, ok := subs[subCategory]
	if !ok {
		return nil, ErrSubCategoryNotFound
	}
	return questions, nil
}

// Document is the persisted record holding the category tree.
type Document struct {
	Categories CategoryTree `json:"categories" bson:"categories"`
	UpdatedAt  time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// Outcome classifies how a question was resolved.
type Outcome string

const (
	OutcomeAnswered Outcome = "answered"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeTimedOut Outcome = "timedOut"
)

// AnswerRecord is the outcome of one question within a session.
type AnswerRecord struct {
	QuestionIndex  int     `json:"questionIndex"`
	SelectedOption *int    `json:"selectedOptionIndex,omitempty"`
	TimeTaken      int     `json:"timeTaken"`
	Correct        bool    `json:"isCorrect"`
	Outcome        Outcome `json:"outcome"`
}
