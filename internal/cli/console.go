package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Apie2c/quiz-app/internal/app"
	"github.com/Apie2c/quiz-app/internal/domain"
	"github.com/Apie2c/quiz-app/internal/transcript"
)

const adminCommand = ":admin"

// lineReader reads one line per request so that input typed while a question is
// being resolved is not consumed ahead of time.
type lineReader struct {
	requests chan struct{}
	lines    chan string
	done     chan struct{}
	exited   chan struct{}
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{
		requests: make(chan struct{}),
		lines:    make(chan string),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	go func() {
		defer close(lr.exited)
		defer close(lr.lines)
		scanner := bufio.NewScanner(r)
		for {
			select {
			case <-lr.requests:
			case <-lr.done:
				return
			}
			if !scanner.Scan() {
				return
			}
			select {
			case lr.lines <- scanner.Text():
			case <-lr.done:
				return
			}
		}
	}()
	return lr
}

func (lr *lineReader) request() {
	select {
	case lr.requests <- struct{}{}:
	case <-lr.done:
	case <-lr.exited:
	}
}

// next requests a line and waits for it.
func (lr *lineReader) next() (string, bool) {
	lr.request()
	line, ok := <-lr.lines
	return line, ok
}

func (lr *lineReader) close() {
	close(lr.done)
}

// console renders machine snapshots as text and turns input lines into transitions.
type console struct {
	machine       *app.Machine
	editor        *app.Editor
	out           io.Writer
	input         *lineReader
	readPassword  func() (string, error)
	transcriptDir string
	hideAdmin     bool
	now           func() time.Time

	rendered string
	warned   int
	entries  []entry
}

type entry struct {
	category    string
	subCategory string
	questions   int
}

type consoleConfig struct {
	In            io.Reader
	Out           io.Writer
	ReadPassword  func() (string, error)
	TranscriptDir string
	HideAdmin     bool
}

func newConsole(machine *app.Machine, editor *app.Editor, cfg consoleConfig) *console {
	c := &console{
		machine:       machine,
		editor:        editor,
		out:           cfg.Out,
		input:         newLineReader(cfg.In),
		readPassword:  cfg.ReadPassword,
		transcriptDir: cfg.TranscriptDir,
		hideAdmin:     cfg.HideAdmin,
		now:           time.Now,
		warned:        -1,
	}
	if c.readPassword == nil {
		c.readPassword = func() (string, error) {
			line, ok := c.input.next()
			if !ok {
				return "", io.EOF
			}
			return line, nil
		}
	}
	return c
}

// run loops until input ends, "quit" is typed or ctx is canceled.
func (c *console) run(ctx context.Context) error {
	defer c.input.close()
	snapshots, cancel := c.machine.Subscribe()
	defer cancel()

	snap := c.machine.Snapshot()
	c.render(snap)

	waiting := false
	askedFor := ""
	for {
		if !waiting && needsInput(snap) {
			c.prompt(snap)
			c.input.request()
			waiting = true
			askedFor = inputKey(snap)
		}

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-snapshots:
			if !ok {
				return nil
			}
			// Queued snapshots may be older than one read after the last command.
			snap = c.machine.Snapshot()
			c.render(snap)
		case line, ok := <-c.input.lines:
			if !ok {
				return nil
			}
			waiting = false
			if inputKey(snap) != askedFor {
				fmt.Fprintln(c.out, "Too late, that question is already over.")
				continue
			}
			quit, err := c.handle(ctx, snap, strings.TrimSpace(line))
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			snap = c.machine.Snapshot()
			c.render(snap)
		}
	}
}

// needsInput is false while answer feedback is shown, since the machine advances on its own.
func needsInput(s app.Snapshot) bool {
	return !(s.Screen == app.ScreenQuiz && s.Feedback != nil)
}

func inputKey(s app.Snapshot) string {
	if s.Screen == app.ScreenQuiz {
		return fmt.Sprintf("%s/%d", s.Screen, s.QuestionNumber)
	}
	return string(s.Screen)
}

func renderKey(s app.Snapshot) string {
	return fmt.Sprintf("%s/%s/%d/%t/%d", s.Screen, s.User, s.QuestionNumber, s.Feedback != nil, s.TotalQuestions)
}

func (c *console) render(s app.Snapshot) {
	if s.Screen == app.ScreenQuiz && s.Feedback == nil && s.TimeLeft == 5 && c.warned != s.QuestionNumber {
		c.warned = s.QuestionNumber
		fmt.Fprintln(c.out, "5 seconds left!")
	}
	key := renderKey(s)
	if key == c.rendered {
		return
	}
	c.rendered = key

	switch s.Screen {
	case app.ScreenLogin:
		fmt.Fprintln(c.out, "\n=== Quiz ===")
		if c.hideAdmin {
			fmt.Fprintln(c.out, "Enter your name to start.")
		} else {
			fmt.Fprintf(c.out, "Enter your name to start, or %s for the admin panel.\n", adminCommand)
		}
	case app.ScreenAdmin:
		fmt.Fprintln(c.out, "\n=== Admin panel ===")
		c.printTree()
		c.printAdminHelp()
	case app.ScreenCategorySelect:
		fmt.Fprintf(c.out, "\nHello, %s! Choose a quiz:\n", s.User)
		c.entries = listEntries(c.editor.Categories())
		if len(c.entries) == 0 {
			fmt.Fprintln(c.out, "  (no quizzes available)")
		}
		for i, e := range c.entries {
			fmt.Fprintf(c.out, "  %d) %s / %s (%d questions)\n", i+1, e.category, e.subCategory, e.questions)
		}
	case app.ScreenQuiz:
		c.renderQuestion(s)
	case app.ScreenResults:
		if s.Score == nil {
			return
		}
		fmt.Fprintf(c.out, "\n=== Results for %s ===\n", s.User)
		fmt.Fprintf(c.out, "%s / %s\n", s.Category, s.SubCategory)
		fmt.Fprintf(c.out, "Score: %d/%d (%d%%)\n", s.Score.Correct, s.Score.Total, s.Score.Percentage)
		fmt.Fprintf(c.out, "Grade: %s\n", s.Score.Grade)
		fmt.Fprintln(c.out, s.Score.Remarks)
	}
}

func (c *console) renderQuestion(s app.Snapshot) {
	if s.Question == nil {
		return
	}
	if fb := s.Feedback; fb != nil {
		switch {
		case fb.Outcome == domain.OutcomeTimedOut:
			fmt.Fprintf(c.out, "Time's up! The correct answer was: %s\n", fb.CorrectText)
		case fb.Correct:
			fmt.Fprintln(c.out, "Correct!")
		default:
			fmt.Fprintf(c.out, "Incorrect. The correct answer was: %s\n", fb.CorrectText)
		}
		return
	}
	fmt.Fprintf(c.out, "\nQuestion %d/%d (%ds) - %s / %s\n", s.QuestionNumber, s.TotalQuestions, s.TimeLeft, s.Category, s.SubCategory)
	fmt.Fprintln(c.out, s.Question.Text)
	for i, opt := range s.Question.Options {
		fmt.Fprintf(c.out, "  %d) %s\n", i+1, opt)
	}
}

func (c *console) prompt(s app.Snapshot) {
	switch s.Screen {
	case app.ScreenLogin:
		fmt.Fprint(c.out, "name> ")
	case app.ScreenAdmin:
		fmt.Fprint(c.out, "admin> ")
	case app.ScreenCategorySelect:
		fmt.Fprint(c.out, "Pick a number, or 'logout'> ")
	case app.ScreenQuiz:
		fmt.Fprintf(c.out, "Answer [1-%d], (s)kip, (e)nd quiz, (q)uit to login> ", len(s.Question.Options))
	case app.ScreenResults:
		fmt.Fprint(c.out, "(r)etake, (n)ew quiz, (d)ownload transcript, e(x)it, (q)uit to login> ")
	}
}

// handle applies one line of input. It reports quit when the user asks to leave the program.
func (c *console) handle(ctx context.Context, s app.Snapshot, line string) (bool, error) {
	if line == "quit" {
		return true, nil
	}

	switch s.Screen {
	case app.ScreenLogin:
		return false, c.handleLogin(line)
	case app.ScreenAdmin:
		c.handleAdmin(ctx, line)
	case app.ScreenCategorySelect:
		c.handleCategorySelect(line)
	case app.ScreenQuiz:
		c.handleQuiz(line)
	case app.ScreenResults:
		c.handleResults(s, line)
	}
	return false, nil
}

func (c *console) handleLogin(line string) error {
	if line != adminCommand || c.hideAdmin {
		if err := c.machine.Login(line); errors.Is(err, domain.ErrEmptyName) {
			fmt.Fprintln(c.out, "Please enter your name.")
		}
		return nil
	}

	if err := c.machine.ShowAdminLogin(); err != nil {
		return nil
	}
	fmt.Fprint(c.out, "password> ")
	password, err := c.readPassword()
	fmt.Fprintln(c.out)
	if errors.Is(err, io.EOF) {
		_ = c.machine.CancelAdminLogin()
		return nil
	}
	if err != nil {
		_ = c.machine.CancelAdminLogin()
		return err
	}
	if err := c.machine.AdminLogin(password); err != nil {
		fmt.Fprintln(c.out, "Wrong password.")
		_ = c.machine.CancelAdminLogin()
	}
	return nil
}

func (c *console) handleCategorySelect(line string) {
	if line == "logout" {
		c.machine.Logout()
		return
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(c.entries) {
		fmt.Fprintln(c.out, "Unknown choice.")
		return
	}
	e := c.entries[n-1]
	if err := c.machine.SelectCategory(e.category); err != nil {
		fmt.Fprintf(c.out, "Cannot select %s: %v\n", e.category, err)
		return
	}
	if err := c.machine.SelectSubCategory(e.subCategory); err != nil {
		fmt.Fprintf(c.out, "Cannot select %s: %v\n", e.subCategory, err)
		return
	}
	if err := c.machine.StartSelected(); err != nil {
		if errors.Is(err, domain.ErrNoQuestions) {
			fmt.Fprintln(c.out, "That quiz has no questions yet.")
			return
		}
		fmt.Fprintf(c.out, "Cannot start: %v\n", err)
	}
}

func (c *console) handleQuiz(line string) {
	var err error
	switch strings.ToLower(line) {
	case "s":
		err = c.machine.SkipQuestion()
	case "e":
		err = c.machine.EndQuizEarly()
	case "q":
		c.machine.Logout()
	default:
		n, convErr := strconv.Atoi(line)
		if convErr != nil {
			fmt.Fprintln(c.out, "Unknown choice.")
			return
		}
		err = c.machine.SubmitAnswer(n - 1)
	}
	switch {
	case errors.Is(err, domain.ErrOptionOutOfRange):
		fmt.Fprintln(c.out, "No such option.")
	case errors.Is(err, domain.ErrAlreadyAnswered), errors.Is(err, domain.ErrNotInQuiz):
		fmt.Fprintln(c.out, "Too late, that question is already over.")
	}
}

func (c *console) handleResults(s app.Snapshot, line string) {
	var err error
	switch strings.ToLower(line) {
	case "r":
		err = c.machine.Retake()
	case "n":
		err = c.machine.NewQuiz()
	case "d":
		path, saveErr := c.saveTranscript(s.User)
		if saveErr != nil {
			fmt.Fprintf(c.out, "Could not save transcript: %v\n", saveErr)
			return
		}
		fmt.Fprintf(c.out, "Transcript saved to %s\n", path)
	case "x":
		err = c.machine.Exit()
	case "q":
		c.machine.Logout()
	default:
		fmt.Fprintln(c.out, "Unknown choice.")
	}
	if err != nil {
		fmt.Fprintf(c.out, "Cannot do that now: %v\n", err)
	}
}

func (c *console) saveTranscript(user string) (string, error) {
	session, ok := c.machine.Session()
	if !ok {
		return "", domain.ErrNotInQuiz
	}
	at := c.now()
	path := filepath.Join(c.transcriptDir, transcript.Filename(user, at))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := transcript.Render(f, transcript.Report{User: user, Session: session, Date: at}); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func (c *console) handleAdmin(ctx context.Context, line string) {
	name, rest, _ := strings.Cut(line, " ")
	args := splitArgs(rest)

	var err error
	switch name {
	case "":
		return
	case "help":
		c.printAdminHelp()
		return
	case "list":
		c.printTree()
		return
	case "logout":
		c.machine.Logout()
		return
	case "add-category":
		err = requireArgs(args, 1, func() error { return c.editor.AddCategory(ctx, args[0]) })
	case "delete-category":
		err = requireArgs(args, 1, func() error { return c.editor.DeleteCategory(ctx, args[0]) })
	case "add-sub":
		err = requireArgs(args, 2, func() error { return c.editor.AddSubCategory(ctx, args[0], args[1]) })
	case "delete-sub":
		err = requireArgs(args, 2, func() error { return c.editor.DeleteSubCategory(ctx, args[0], args[1]) })
	case "add-question":
		err = requireArgs(args, 8, func() error {
			q, err := parseQuestion(args[2:])
			if err != nil {
				return err
			}
			return c.editor.AddQuestion(ctx, args[0], args[1], q)
		})
	case "edit-question":
		err = requireArgs(args, 9, func() error {
			index, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			q, err := parseQuestion(args[3:])
			if err != nil {
				return err
			}
			return c.editor.UpdateQuestion(ctx, args[0], args[1], index, q)
		})
	case "delete-question":
		err = requireArgs(args, 3, func() error {
			index, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			return c.editor.DeleteQuestion(ctx, args[0], args[1], index)
		})
	default:
		fmt.Fprintf(c.out, "Unknown command %q, type 'help'.\n", name)
		return
	}

	switch {
	case err == nil:
		fmt.Fprintln(c.out, "Saved.")
	case errors.Is(err, domain.ErrSaveFailed):
		fmt.Fprintln(c.out, "Change kept locally, but saving failed.")
	default:
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
}

func (c *console) printAdminHelp() {
	fmt.Fprint(c.out, `Commands (arguments separated by |):
  list
  add-category <name>
  delete-category <name>
  add-sub <category> | <sub-category>
  delete-sub <category> | <sub-category>
  add-question <category> | <sub-category> | <question> | <o1> | <o2> | <o3> | <o4> | <correct 1-4> [| <seconds>]
  edit-question <category> | <sub-category> | <n> | <question> | <o1> | <o2> | <o3> | <o4> | <correct 1-4> [| <seconds>]
  delete-question <category> | <sub-category> | <n>
  logout
`)
}

func (c *console) printTree() {
	tree := c.editor.Categories()
	if len(tree) == 0 {
		fmt.Fprintln(c.out, "  (no categories)")
	}
	for _, category := range sortedKeys(tree) {
		fmt.Fprintf(c.out, "%s\n", category)
		subs := tree[category]
		for _, sub := range sortedKeys(subs) {
			fmt.Fprintf(c.out, "  %s\n", sub)
			for i, q := range subs[sub] {
				fmt.Fprintf(c.out, "    %d. %s [%s] (%ds)\n", i+1, q.Text, q.CorrectText(), q.Limit())
			}
		}
	}
}

func listEntries(tree domain.CategoryTree) []entry {
	var entries []entry
	for _, category := range sortedKeys(tree) {
		subs := tree[category]
		for _, sub := range sortedKeys(subs) {
			entries = append(entries, entry{category: category, subCategory: sub, questions: len(subs[sub])})
		}
	}
	return entries
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitArgs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func requireArgs(args []string, n int, f func() error) error {
	if len(args) < n {
		return fmt.Errorf("expected at least %d arguments, got %d", n, len(args))
	}
	return f()
}

// parseQuestion reads question, four options, the 1-based correct option and an optional time limit.
func parseQuestion(args []string) (domain.Question, error) {
	correct, err := strconv.Atoi(args[5])
	if err != nil {
		return domain.Question{}, fmt.Errorf("correct option must be a number: %w", err)
	}
	q := domain.Question{
		Text:         args[0],
		Options:      []string{args[1], args[2], args[3], args[4]},
		CorrectIndex: correct - 1,
	}
	if len(args) > 6 && args[6] != "" {
		if q.TimeLimit, err = strconv.Atoi(args[6]); err != nil {
			return domain.Question{}, fmt.Errorf("time limit must be a number: %w", err)
		}
	}
	return q, nil
}

func parseIndex(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("question number must be a number: %w", err)
	}
	return n - 1, nil
}
