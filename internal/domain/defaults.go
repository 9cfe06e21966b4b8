package domain

// DefaultCategories returns the built-in tree used to seed an empty store.
// A fresh tree is built on every call.
func DefaultCategories() CategoryTree {
	return CategoryTree{
		"General Knowledge": {
			"History": {
				{
					Text:         "What year did World War II end?",
					Options:      []string{"1943", "1944", "1945", "1946"},
					CorrectIndex: 2,
					TimeLimit:    30,
				},
				{
					Text:         "Who was the first President of the United States?",
					Options:      []string{"Thomas Jefferson", "George Washington", "John Adams", "Benjamin Franklin"},
					CorrectIndex: 1,
					TimeLimit:    30,
				},
			},
			"Geography": {
				{
					Text:         "What is the capital of France?",
					Options:      []string{"London", "Berlin", "Paris", "Madrid"},
					CorrectIndex: 2,
					TimeLimit:    20,
				},
				{
					Text:         "Which is the largest ocean on Earth?",
					Options:      []string{"Atlantic Ocean", "Indian Ocean", "Arctic Ocean", "Pacific Ocean"},
					CorrectIndex: 3,
					TimeLimit:    25,
				},
			},
		},
		"Science": {
			"Physics": {
				{
					Text:         "What is the speed of light in vacuum?",
					Options:      []string{"300,000 km/s", "150,000 km/s", "450,000 km/s", "200,000 km/s"},
					CorrectIndex: 0,
					TimeLimit:    35,
				},
			},
			"Biology": {
				{
					Text:         "What is the powerhouse of the cell?",
					Options:      []string{"Nucleus", "Mitochondria", "Ribosome", "Chloroplast"},
					CorrectIndex: 1,
					TimeLimit:    25,
				},
			},
		},
	}
}
