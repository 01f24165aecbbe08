package app

import (
	"math"

	"exam-portal/internal/domain"
)

// Score counts the answers matching the key and converts them to a rounded percentage.
// Missing answers never count as correct; an exam without questions scores 0.
func Score(answers map[int]int, questions []domain.Question) domain.Outcome {
	total := len(questions)
	correct := 0
	for i, q := range questions {
		if chosen, ok := answers[i]; ok && chosen == q.CorrectAnswer {
			correct++
		}
	}
	return domain.Outcome{
		Score:          percentage(correct, total),
		CorrectAnswers: correct,
		TotalQuestions: total,
	}
}

// percentage rounds half up.
func percentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(100*float64(correct)/float64(total) + 0.5))
}
