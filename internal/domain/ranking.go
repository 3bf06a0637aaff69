package domain

import "sort"

// RankUsers orders users by xp desc, created_at asc (id as a final stable key)
// and assigns the dense rank and ordinal position to each row.
func RankUsers(users []User) []RankedUser {
	sorted := make([]User, len(users))
	copy(sorted, users)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.XP != b.XP {
			return a.XP > b.XP
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	ranked := make([]RankedUser, len(sorted))
	var rank int64
	for i, u := range sorted {
		if i == 0 || u.XP != sorted[i-1].XP || !u.CreatedAt.Equal(sorted[i-1].CreatedAt) {
			rank++
		}
		ranked[i] = RankedUser{User: u, Rank: rank, Position: int64(i + 1)}
	}
	return ranked
}

// WindowBounds returns the inclusive 1-based positions of a 2*radius+1 window
// centered on position, shifted to stay within 1..total.
func WindowBounds(position, radius, total int64) (from, to int64) {
	if total <= 0 || position <= 0 {
		return 0, -1
	}
	if radius < 0 {
		radius = 0
	}
	from = position - radius
	to = position + radius
	if from < 1 {
		to += 1 - from
		from = 1
	}
	if to > total {
		from -= to - total
		to = total
	}
	if from < 1 {
		from = 1
	}
	return from, to
}

// TopPercentage is the share of users at or above position, rounded.
func TopPercentage(position, total int64) int {
	if total <= 0 || position <= 0 {
		return 0
	}
	return int((position*100 + total/2) / total)
}
