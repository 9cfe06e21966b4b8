package app

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Apie2c/quiz-app/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Screen is a state of the quiz machine.
type Screen string

const (
	ScreenLogin          Screen = "login"
	ScreenAdminLogin     Screen = "adminLogin"
	ScreenAdmin          Screen = "admin"
	ScreenCategorySelect Screen = "categorySelect"
	ScreenQuiz           Screen = "quiz"
	ScreenResults        Screen = "results"
)

const (
	DefaultAnswerDelay  = 2 * time.Second
	DefaultTimeoutDelay = 3 * time.Second
	adminUser           = "Admin"
)

// CategorySource provides the current category tree.
type CategorySource interface {
	Categories() domain.CategoryTree
}

// MachineConfig tunes the quiz machine.
type MachineConfig struct {
	AdminPassword string
	// HideAdmin disables the admin login entry on the login screen.
	HideAdmin bool
	// AnswerDelay is how long the answer feedback stays before advancing.
	AnswerDelay time.Duration
	// TimeoutDelay is how long the timeout notice stays before advancing.
	TimeoutDelay time.Duration
}

// PlayQuestion is a question as presented in a session: options are shuffled and the
// correct answer is carried by text, since shuffling invalidates the stored index.
type PlayQuestion struct {
	Text        string   `json:"question"`
	Options     []string `json:"options"`
	TimeLimit   int      `json:"timeLimit"`
	CorrectText string   `json:"correctText"`
}

// Session is the transient state of one quiz attempt.
type Session struct {
	ID          string                `json:"id"`
	Category    string                `json:"category"`
	SubCategory string                `json:"subCategory"`
	Questions   []PlayQuestion        `json:"questions"`
	Current     int                   `json:"currentIndex"`
	Answers     []domain.AnswerRecord `json:"answers"`
	StartedAt   time.Time             `json:"startedAt"`
}

// Score of the session against its full question count.
func (s Session) Score() Score {
	return CalculateScore(s.Answers, len(s.Questions))
}

func (s Session) clone() Session {
	s.Questions = append([]PlayQuestion(nil), s.Questions...)
	s.Answers = append([]domain.AnswerRecord(nil), s.Answers...)
	return s
}

// Feedback describes how the current question was resolved.
type Feedback struct {
	Outcome     domain.Outcome `json:"outcome"`
	Selected    *int           `json:"selected,omitempty"`
	Correct     bool           `json:"correct"`
	CorrectText string         `json:"correctText"`
}

// Snapshot is an immutable view of the machine for rendering.
type Snapshot struct {
	Screen         Screen        `json:"screen"`
	User           string        `json:"user"`
	IsAdmin        bool          `json:"isAdmin"`
	Category       string        `json:"category"`
	SubCategory    string        `json:"subCategory"`
	QuestionNumber int           `json:"questionNumber"`
	TotalQuestions int           `json:"totalQuestions"`
	Question       *PlayQuestion `json:"question,omitempty"`
	TimeLeft       int           `json:"timeLeft"`
	Feedback       *Feedback     `json:"feedback,omitempty"`
	Answered       int           `json:"answered"`
	Score          *Score        `json:"score,omitempty"`
}

// Machine drives login, category selection, timed questions and results for one user.
// All transitions are serialized; timer callbacks carry a generation number so that a
// callback scheduled for an earlier question is ignored.
type Machine struct {
	cfg    MachineConfig
	source CategorySource
	clock  Clock
	log    zerolog.Logger

	mu          sync.Mutex
	rnd         *rand.Rand
	screen      Screen
	user        string
	isAdmin     bool
	category    string
	subCategory string
	session     *Session
	timeLeft    int
	resolved    bool
	feedback    *Feedback
	ticker      Timer
	pending     Timer
	generation  uint64
	closed      bool
	subscribers map[chan Snapshot]struct{}
}

func NewMachine(source CategorySource, cfg MachineConfig, log zerolog.Logger) *Machine {
	return NewMachineWithClock(source, cfg, log, systemClock{}, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewMachineWithClock allows deterministic timers and shuffles in tests.
func NewMachineWithClock(source CategorySource, cfg MachineConfig, log zerolog.Logger, clock Clock, rnd *rand.Rand) *Machine {
	if cfg.AnswerDelay <= 0 {
		cfg.AnswerDelay = DefaultAnswerDelay
	}
	if cfg.TimeoutDelay <= 0 {
		cfg.TimeoutDelay = DefaultTimeoutDelay
	}
	return &Machine{
		cfg:         cfg,
		source:      source,
		clock:       clock,
		log:         log.With().Str("component", "quiz_machine").Logger(),
		rnd:         rnd,
		screen:      ScreenLogin,
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Login enters the player flow.
func (m *Machine) Login(user string) error {
	user = strings.TrimSpace(user)
	if user == "" {
		return domain.ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screen != ScreenLogin {
		return domain.ErrInvalidTransition
	}
	m.user = user
	m.isAdmin = false
	m.screen = ScreenCategorySelect
	m.publishLocked()
	return nil
}

// ShowAdminLogin moves from the login screen to the admin password prompt.
func (m *Machine) ShowAdminLogin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screen != ScreenLogin || m.cfg.HideAdmin {
		return domain.ErrInvalidTransition
	}
	m.screen = ScreenAdminLogin
	m.publishLocked()
	return nil
}

// AdminLogin compares the password with the configured constant. This is a gate, not authentication.
func (m *Machine) AdminLogin(password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screen != ScreenAdminLogin {
		return domain.ErrInvalidTransition
	}
	if password != m.cfg.AdminPassword {
		return domain.ErrInvalidPassword
	}
	m.user = adminUser
	m.isAdmin = true
	m.screen = ScreenAdmin
	m.publishLocked()
	return nil
}

// CancelAdminLogin returns from the password prompt to the login screen.
func (m *Machine) CancelAdminLogin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screen != ScreenAdminLogin {
		return domain.ErrInvalidTransition
	}
	m.screen = ScreenLogin
	m.publishLocked()
	return nil
}

// Logout returns to the login screen from anywhere, discarding the session.
func (m *Machine) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	m.publishLocked()
}

// SelectCategory remembers the chosen category and clears the sub-category.
func (m *Machine) SelectCategory(category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screen != ScreenCategorySelect {
		return domain.ErrInvalidTransition
	}
	if _, ok := m.source.Categories()[category]; !ok {
		return domain.ErrCategoryNotFound
	}
	m.category = category
	m.subCategory = ""
	m.publishLocked()
	return nil
}

// SelectSubCategory remembers the chosen sub-category of the selected category.
func (m *Machine) SelectSubCategory(subCategory string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screen != ScreenCategorySelect {
		return domain.ErrInvalidTransition
	}
	if m.category == "" {
		return domain.ErrNoSelection
	}
	if _, err := m.source.Categories().Questions(m.category, subCategory); err != nil {
		return err
	}
	m.subCategory = subCategory
	m.publishLocked()
	return nil
}

// StartSelected starts a quiz on the remembered selection.
func (m *Machine) StartSelected() error {
	m.mu.Lock()
	category, subCategory := m.category, m.subCategory
	m.mu.Unlock()
	return m.StartQuiz(category, subCategory)
}

// StartQuiz snapshots and shuffles the sub-category and shows its first question.
// Invalid selections change nothing.
func (m *Machine) StartQuiz(category, subCategory string) error {
	if category == "" || subCategory == "" {
		return domain.ErrNoSelection
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screen != ScreenCategorySelect && m.screen != ScreenResults {
		return domain.ErrInvalidTransition
	}
	return m.startLocked(category, subCategory)
}

func (m *Machine) startLocked(category, subCategory string) error {
	questions, err := m.source.Categories().Questions(category, subCategory)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return domain.ErrNoQuestions
	}

	shuffled := Shuffle(m.rnd, questions)
	played := make([]PlayQuestion, len(shuffled))
	for i, q := range shuffled {
		played[i] = PlayQuestion{
			Text:        q.Text,
			Options:     Shuffle(m.rnd, q.Options),
			TimeLimit:   q.Limit(),
			CorrectText: q.CorrectText(),
		}
	}

	m.category = category
	m.subCategory = subCategory
	m.session = &Session{
		ID:          uuid.NewString(),
		Category:    category,
		SubCategory: subCategory,
		Questions:   played,
		Answers:     make([]domain.AnswerRecord, 0, len(played)),
		StartedAt:   m.clock.Now(),
	}
	m.screen = ScreenQuiz
	m.log.Debug().
		Str("session_id", m.session.ID).
		Str("category", category).
		Str("sub_category", subCategory).
		Int("questions", len(played)).
		Msg("quiz started")
	m.enterQuestionLocked()
	m.publishLocked()
	return nil
}

// SubmitAnswer resolves the current question with the option at index.
func (m *Machine) SubmitAnswer(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpenQuestionLocked(); err != nil {
		return err
	}
	q := m.session.Questions[m.session.Current]
	if index < 0 || index >= len(q.Options) {
		return domain.ErrOptionOutOfRange
	}

	m.stopTickerLocked()
	selected := index
	correct := q.Options[index] == q.CorrectText
	m.recordLocked(domain.AnswerRecord{
		QuestionIndex:  m.session.Current,
		SelectedOption: &selected,
		TimeTaken:      q.TimeLimit - m.timeLeft,
		Correct:        correct,
		Outcome:        domain.OutcomeAnswered,
	})
	m.scheduleAdvanceLocked(m.cfg.AnswerDelay)
	m.publishLocked()
	return nil
}

// SkipQuestion records the current question as skipped and moves on immediately.
func (m *Machine) SkipQuestion() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpenQuestionLocked(); err != nil {
		return err
	}
	q := m.session.Questions[m.session.Current]

	m.stopTickerLocked()
	m.recordLocked(domain.AnswerRecord{
		QuestionIndex: m.session.Current,
		TimeTaken:     q.TimeLimit - m.timeLeft,
		Outcome:       domain.OutcomeSkipped,
	})
	m.advanceLocked()
	m.publishLocked()
	return nil
}

// EndQuizEarly jumps to the results with the answers recorded so far.
func (m *Machine) EndQuizEarly() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screen != ScreenQuiz {
		return domain.ErrNotInQuiz
	}
	m.finishLocked()
	m.publishLocked()
	return nil
}

// Retake replays the same sub-category with a fresh shuffle.
func (m *Machine) Retake() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screen != ScreenResults || m.session == nil {
		return domain.ErrInvalidTransition
	}
	return m.startLocked(m.session.Category, m.session.SubCategory)
}

// NewQuiz discards the finished session and returns to category selection.
func (m *Machine) NewQuiz() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screen != ScreenResults {
		return domain.ErrInvalidTransition
	}
	m.cancelTimersLocked()
	m.session = nil
	m.category = ""
	m.subCategory = ""
	m.screen = ScreenCategorySelect
	m.publishLocked()
	return nil
}

// Exit leaves the results screen for the login screen.
func (m *Machine) Exit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screen != ScreenResults {
		return domain.ErrInvalidTransition
	}
	m.resetLocked()
	m.publishLocked()
	return nil
}

// Session returns a copy of the live or finished session.
func (m *Machine) Session() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	return m.session.clone(), true
}

// Snapshot returns the current view of the machine.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every state change, starting with
// the current one. The caller must invoke the returned cancel function to avoid leaks.
func (m *Machine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	m.subscribers[ch] = struct{}{}
	ch <- m.snapshotLocked()
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

// Close cancels every timer and closes all subscriptions.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimersLocked()
	m.generation++
	m.closed = true
	for ch := range m.subscribers {
		delete(m.subscribers, ch)
		close(ch)
	}
}

func (m *Machine) requireOpenQuestionLocked() error {
	if m.screen != ScreenQuiz || m.session == nil {
		return domain.ErrNotInQuiz
	}
	if m.resolved {
		return domain.ErrAlreadyAnswered
	}
	return nil
}

// enterQuestionLocked shows the current question and starts its countdown.
// It is the only place a ticker is started, so at most one is ever live.
func (m *Machine) enterQuestionLocked() {
	m.cancelTimersLocked()
	m.generation++
	m.timeLeft = m.session.Questions[m.session.Current].TimeLimit
	m.resolved = false
	m.feedback = nil
	m.scheduleTickLocked(m.generation)
}

func (m *Machine) scheduleTickLocked(gen uint64) {
	m.ticker = m.clock.AfterFunc(time.Second, func() { m.tick(gen) })
}

func (m *Machine) tick(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation || m.screen != ScreenQuiz || m.resolved {
		return
	}
	m.timeLeft--
	if m.timeLeft > 0 {
		m.scheduleTickLocked(gen)
	} else {
		m.timeLeft = 0
		m.ticker = nil
		m.expireLocked()
	}
	m.publishLocked()
}

// expireLocked resolves the current question as timed out.
func (m *Machine) expireLocked() {
	q := m.session.Questions[m.session.Current]
	m.recordLocked(domain.AnswerRecord{
		QuestionIndex: m.session.Current,
		TimeTaken:     q.TimeLimit,
		Outcome:       domain.OutcomeTimedOut,
	})
	m.scheduleAdvanceLocked(m.cfg.TimeoutDelay)
}

func (m *Machine) recordLocked(record domain.AnswerRecord) {
	m.session.Answers = append(m.session.Answers, record)
	m.resolved = true
	m.feedback = &Feedback{
		Outcome:     record.Outcome,
		Selected:    record.SelectedOption,
		Correct:     record.Correct,
		CorrectText: m.session.Questions[record.QuestionIndex].CorrectText,
	}
}

func (m *Machine) scheduleAdvanceLocked(delay time.Duration) {
	gen := m.generation
	m.pending = m.clock.AfterFunc(delay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.generation || m.screen != ScreenQuiz {
			return
		}
		m.pending = nil
		m.advanceLocked()
		m.publishLocked()
	})
}

func (m *Machine) advanceLocked() {
	if m.session.Current < len(m.session.Questions)-1 {
		m.session.Current++
		m.enterQuestionLocked()
		return
	}
	m.finishLocked()
}

func (m *Machine) finishLocked() {
	m.cancelTimersLocked()
	m.generation++
	m.resolved = true
	m.screen = ScreenResults
	score := m.session.Score()
	m.log.Debug().
		Str("session_id", m.session.ID).
		Int("correct", score.Correct).
		Int("total", score.Total).
		Msg("quiz finished")
}

func (m *Machine) stopTickerLocked() {
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
}

func (m *Machine) cancelTimersLocked() {
	m.stopTickerLocked()
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}

func (m *Machine) resetLocked() {
	m.cancelTimersLocked()
	m.generation++
	m.screen = ScreenLogin
	m.user = ""
	m.isAdmin = false
	m.category = ""
	m.subCategory = ""
	m.session = nil
	m.timeLeft = 0
	m.resolved = false
	m.feedback = nil
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Screen:      m.screen,
		User:        m.user,
		IsAdmin:     m.isAdmin,
		Category:    m.category,
		SubCategory: m.subCategory,
	}
	if m.session == nil {
		return snap
	}
	snap.TotalQuestions = len(m.session.Questions)
	snap.Answered = len(m.session.Answers)
	switch m.screen {
	case ScreenQuiz:
		q := m.session.Questions[m.session.Current]
		q.Options = append([]string(nil), q.Options...)
		snap.Question = &q
		snap.QuestionNumber = m.session.Current + 1
		snap.TimeLeft = m.timeLeft
		if m.feedback != nil {
			fb := *m.feedback
			snap.Feedback = &fb
		}
	case ScreenResults:
		score := m.session.Score()
		snap.Score = &score
	}
	return snap
}

func (m *Machine) publishLocked() {
	if len(m.subscribers) == 0 {
		return
	}
	snap := m.snapshotLocked()
	for ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow reader: drop its oldest snapshot rather than block the machine.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
