package domain

import "strings"

// The functions below never modify their input; each returns a fresh tree so that
// callers holding the previous tree keep a consistent view.

// AddCategory adds an empty category. An existing category is kept as is.
func AddCategory(t CategoryTree, name string) (CategoryTree, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return t, ErrEmptyName
	}
	out := cloneOrEmpty(t)
	if _, ok := out[name]; !ok {
		out[name] = SubCategoryMap{}
	}
	return out, nil
}

// DeleteCategory removes a category with all its content. Unknown names are ignored.
func DeleteCategory(t CategoryTree, name string) CategoryTree {
	out := cloneOrEmpty(t)
	delete(out, name)
	return out
}

// AddSubCategory adds an empty sub-category, creating the category when needed.
func AddSubCategory(t CategoryTree, category, name string) (CategoryTree, error) {
	category = strings.TrimSpace(category)
	name = strings.TrimSpace(name)
	if category == "" || name == "" {
		return t, ErrEmptyName
	}
	out := cloneOrEmpty(t)
	subs, ok := out[category]
	if !ok {
		subs = SubCategoryMap{}
		out[category] = subs
	}
	if _, ok := subs[name]; !ok {
		subs[name] = []Question{}
	}
	return out, nil
}

// DeleteSubCategory removes a sub-category. Unknown names are ignored.
func DeleteSubCategory(t CategoryTree, category, name string) CategoryTree {
	out := cloneOrEmpty(t)
	if subs, ok := out[category]; ok {
		delete(subs, name)
	}
	return out
}

// AddQuestion appends a validated question, creating category and sub-category when needed.
func AddQuestion(t CategoryTree, category, subCategory string, q Question) (CategoryTree, error) {
	if err := ValidateQuestion(q); err != nil {
		return t, err
	}
	out, err := AddSubCategory(t, category, subCategory)
	if err != nil {
		return t, err
	}
	category = strings.TrimSpace(category)
	subCategory = strings.TrimSpace(subCategory)
	out[category][subCategory] = append(out[category][subCategory], q.clone())
	return out, nil
}

// DeleteQuestion removes the question at index. Unknown locations are ignored.
func DeleteQuestion(t CategoryTree, category, subCategory string, index int) CategoryTree {
	out := cloneOrEmpty(t)
	questions, err := out.Questions(category, subCategory)
	if err != nil || index < 0 || index >= len(questions) {
		return out
	}
	out[category][subCategory] = append(questions[:index:index], questions[index+1:]...)
	return out
}

// UpdateQuestion replaces the question at index with a validated question.
func UpdateQuestion(t CategoryTree, category, subCategory string, index int, q Question) (CategoryTree, error) {
	if err := ValidateQuestion(q); err != nil {
		return t, err
	}
	questions, err := t.Questions(category, subCategory)
	if err != nil {
		return t, err
	}
	if index < 0 || index >= len(questions) {
		return t, ErrQuestionNotFound
	}
	out := t.Clone()
	out[category][subCategory][index] = q.clone()
	return out, nil
}

func cloneOrEmpty(t CategoryTree) CategoryTree {
	if t == nil {
		return CategoryTree{}
	}
	return t.Clone()
}
