// Package leaderboard derives ranked standings from player scores.
package leaderboard

import (
	"cmp"
	"slices"

	"github.com/abrezinsky/quizattack/internal/models"
)

// Delta is the score change a player made in the round just resolved
type Delta struct {
	PlayerID string `json:"player_id"`
	Previous int    `json:"previous"`
	Points   int    `json:"points"`
	Current  int    `json:"current"`
}

// Standing is one row of the leaderboard
type Standing struct {
	Rank      int    `json:"rank"`
	PlayerID  string `json:"player_id"`
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatar,omitempty"`
	Score     int    `json:"score"`
	Cards     int    `json:"cards"`
	JoinOrder int    `json:"join_order"`
	Delta     *Delta `json:"delta,omitempty"`
}

// Project sorts players by score descending, breaking ties by join order, and
// assigns competition ranks (1, 1, 3). Rows for players with a delta carry it.
func Project(players []models.Player, deltas ...Delta) []Standing {
	byPlayer := make(map[string]Delta, len(deltas))
	for _, d := range deltas {
		byPlayer[d.PlayerID] = d
	}

	rows := make([]Standing, len(players))
	for i, p := range players {
		rows[i] = Standing{
			PlayerID:  p.ID,
			Nickname:  p.Nickname,
			Avatar:    p.Avatar,
			Score:     p.Score,
			Cards:     p.Cards,
			JoinOrder: p.JoinOrder,
		}
		if d, ok := byPlayer[p.ID]; ok {
			rows[i].Delta = &d
		}
	}

	slices.SortStableFunc(rows, func(a, b Standing) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.JoinOrder, b.JoinOrder)
	})
	assignRanks(rows)
	return rows
}

// assignRanks expects rows already sorted by score descending
func assignRanks(rows []Standing) {
	for i := range rows {
		if i > 0 && rows[i].Score == rows[i-1].Score {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
}
