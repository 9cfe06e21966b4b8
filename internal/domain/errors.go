package domain

import "errors"

var (
	// ErrDocumentNotFound is returned when no category document has been stored yet.
	ErrDocumentNotFound = errors.New("category document not found")
	// ErrCategoryNotFound indicates an unknown category name.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrSubCategoryNotFound indicates an unknown sub-category name.
	ErrSubCategoryNotFound = errors.New("sub-category not found")
	// ErrQuestionNotFound indicates a question index outside the sub-category.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoQuestions is returned when a quiz is started on an empty sub-category.
	ErrNoQuestions = errors.New("sub-category has no questions")
	// ErrInvalidQuestion wraps validation failures of question content.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrEmptyName rejects blank user, category and sub-category names.
	ErrEmptyName = errors.New("name must not be empty")

	// ErrInvalidPassword is returned by the admin gate on mismatch.
	ErrInvalidPassword = errors.New("invalid admin password")
	// ErrInvalidTransition indicates an operation that is not allowed on the current screen.
	ErrInvalidTransition = errors.New("operation not allowed on current screen")
	// ErrNoSelection is returned when a quiz is started without category and sub-category.
	ErrNoSelection = errors.New("category and sub-category must be selected")
	// ErrNotInQuiz is returned by answer operations outside of quiz play.
	ErrNotInQuiz = errors.New("no quiz in progress")
	// ErrAlreadyAnswered rejects a second resolution of the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrOptionOutOfRange indicates a selected option index outside the options.
	ErrOptionOutOfRange = errors.New("option index out of range")

	// ErrSaveFailed is the generic error surfaced when the category tree could not be persisted.
	ErrSaveFailed = errors.New("failed to save categories")
)
