package entities

import (
	"cmp"
	"slices"

	"cloud.google.com/go/civil"
)

// LeaderboardEntry is one ranked line of the daily leaderboard.
type LeaderboardEntry struct {
	Position        int // 1-based
	UserID          string
	DisplayName     string
	EffectiveStreak int
	TotalQuestions  int
	TotalCorrect    int
}

// ResetWrite zeroes the stored streak of a user who was inactive on the leaderboard day.
type ResetWrite struct {
	UserID string
}

// Leaderboard is the ordered ranking for one day plus the streak resets it implies.
type Leaderboard struct {
	Date    civil.Date
	Entries []LeaderboardEntry
	Resets  []ResetWrite
}

// BuildLeaderboard ranks records for today by effective streak, then total
// questions, then total correct, all descending. Fully equal rows keep input order.
//
// A reset is emitted for every record inactive today whose stored streak is not
// already zero, so a second build on the same day after the resets were applied
// yields none.
func BuildLeaderboard(records []*UserRecord, today civil.Date) Leaderboard {
	entries := make([]LeaderboardEntry, 0, len(records))
	var resets []ResetWrite

	for _, r := range records {
		if r == nil {
			continue
		}

		entries = append(entries, LeaderboardEntry{
			UserID:          r.UserID,
			DisplayName:     r.DisplayName,
			EffectiveStreak: r.EffectiveStreak(today),
			TotalQuestions:  r.TotalQuestions,
			TotalCorrect:    r.TotalCorrect,
		})

		if r.LastActiveDate != today && r.StreakDays != 0 {
			resets = append(resets, ResetWrite{UserID: r.UserID})
		}
	}

	slices.SortStableFunc(entries, func(a, b LeaderboardEntry) int {
		return cmp.Or(
			cmp.Compare(b.EffectiveStreak, a.EffectiveStreak),
			cmp.Compare(b.TotalQuestions, a.TotalQuestions),
			cmp.Compare(b.TotalCorrect, a.TotalCorrect),
		)
	})

	for i := range entries {
		entries[i].Position = i + 1
	}

	return Leaderboard{
		Date:    today,
		Entries: entries,
		Resets:  resets,
	}
}
