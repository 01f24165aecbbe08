package app

import (
	"testing"

	"exam-portal/internal/domain"
	"github.com/stretchr/testify/require"
)

func keyedQuestions(key ...int) []domain.Question {
	questions := make([]domain.Question, len(key))
	for i, k := range key {
		questions[i] = domain.Question{
			Text:          "Q",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: k,
		}
	}
	return questions
}

func TestScoreCountsMatchingAnswers(t *testing.T) {
	questions := keyedQuestions(0, 1, 2, 3)

	got := Score(map[int]int{0: 0, 1: 1, 2: 0, 3: 3}, questions)

	require.Equal(t, domain.Outcome{Score: 75, CorrectAnswers: 3, TotalQuestions: 4}, got)
}

func TestScorePerfectAnswersGiveHundred(t *testing.T) {
	questions := keyedQuestions(2, 0, 1)
	answers := map[int]int{0: 2, 1: 0, 2: 1}

	got := Score(answers, questions)

	require.Equal(t, 100, got.Score)
	require.Equal(t, 3, got.CorrectAnswers)
}

func TestScoreMissingAnswersNeverCount(t *testing.T) {
	// Question 1 expects option 0, which is also Go's zero value.
	questions := keyedQuestions(1, 0)

	got := Score(map[int]int{0: 1}, questions)

	require.Equal(t, 1, got.CorrectAnswers)
	require.Equal(t, 50, got.Score)
}

func TestScoreIgnoresAnswersOutsideTheExam(t *testing.T) {
	questions := keyedQuestions(0)

	got := Score(map[int]int{0: 0, 5: 0, -1: 0}, questions)

	require.Equal(t, 1, got.CorrectAnswers)
	require.LessOrEqual(t, got.CorrectAnswers, got.TotalQuestions)
}

func TestScoreWithoutQuestionsIsZero(t *testing.T) {
	got := Score(map[int]int{0: 1}, nil)

	require.Equal(t, domain.Outcome{}, got)
}

func TestScoreRoundsHalfUp(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{1, 8, 13}, // 12.5
		{1, 3, 33},
		{2, 3, 67},
		{3, 8, 38}, // 37.5
		{0, 5, 0},
	}
	for _, tc := range cases {
		key := make([]int, tc.total)
		answers := map[int]int{}
		for i := 0; i < tc.correct; i++ {
			answers[i] = 0
		}
		got := Score(answers, keyedQuestions(key...))
		require.Equalf(t, tc.want, got.Score, "%d/%d", tc.correct, tc.total)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	questions := keyedQuestions(3, 2, 1, 0, 1)
	answers := map[int]int{0: 3, 2: 2, 4: 1}

	first := Score(answers, questions)
	second := Score(answers, questions)

	require.Equal(t, first, second)
	require.Equal(t, map[int]int{0: 3, 2: 2, 4: 1}, answers)
}
