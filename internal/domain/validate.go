package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateQuestion checks the structural invariants of a question: non-empty text,
// exactly four non-empty options, a correct index in range and a non-negative time limit.
func ValidateQuestion(q Question) error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	problems := make([]string, 0, len(ve))
	for _, fe := range ve {
		problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidQuestion, strings.Join(problems, "; "))
}

// ValidateTree validates every question of the tree and reports the first failure
// in a stable (sorted) order.
func ValidateTree(t CategoryTree) error {
	categories := make([]string, 0, len(t))
	for name := range t {
		categories = append(categories, name)
	}
	sort.Strings(categories)
	for _, category := range categories {
		if strings.TrimSpace(category) == "" {
			return ErrEmptyName
		}
		subs := t[category]
		names := make([]string, 0, len(subs))
		for name := range subs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, sub := range names {
			if strings.TrimSpace(sub) == "" {
				return ErrEmptyName
			}
			for i, q := range subs[sub] {
				if err := ValidateQuestion(q); err != nil {
					return fmt.Errorf("%s/%s #%d: %w", category, sub, i+1, err)
				}
			}
		}
	}
	return nil
}
