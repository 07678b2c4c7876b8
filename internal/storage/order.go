package storage

import (
	"sort"

	"github.com/mcoot/quizroom/internal/model"
)

// SortPlayers orders players by creation time, breaking ties by id
func SortPlayers(players []*model.Player) {
	sort.Slice(players, func(i, j int) bool {
		if !players[i].CreatedAt.Equal(players[j].CreatedAt) {
			return players[i].CreatedAt.Before(players[j].CreatedAt)
		}
		return players[i].ID < players[j].ID
	})
}

// SortQuestions orders questions by creation time, breaking ties by id
func SortQuestions(questions []*model.Question) {
	sort.Slice(questions, func(i, j int) bool {
		if !questions[i].CreatedAt.Equal(questions[j].CreatedAt) {
			return questions[i].CreatedAt.Before(questions[j].CreatedAt)
		}
		return questions[i].ID < questions[j].ID
	})
}
