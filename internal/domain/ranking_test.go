package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRankUsersOrdersByXPThenSignup(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	users := []User{
		{ID: 1, XP: 10, CreatedAt: base},
		{ID: 2, XP: 50, CreatedAt: base.Add(time.Hour)},
		{ID: 3, XP: 50, CreatedAt: base},
		{ID: 4, XP: 5, CreatedAt: base},
	}

	ranked := RankUsers(users)
	ids := make([]int64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.User.ID
		assert.Equal(t, int64(i+1), r.Position)
	}
	assert.Equal(t, []int64{3, 2, 1, 4}, ids)
	assert.Equal(t, int64(1), ranked[0].Rank)
	assert.Equal(t, int64(2), ranked[1].Rank)
}

func TestRankUsersDenseOnFullTie(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ranked := RankUsers([]User{
		{ID: 1, XP: 30, CreatedAt: at},
		{ID: 2, XP: 30, CreatedAt: at},
		{ID: 3, XP: 10, CreatedAt: at},
	})
	assert.Equal(t, int64(1), ranked[0].Rank)
	assert.Equal(t, int64(1), ranked[1].Rank)
	assert.Equal(t, int64(2), ranked[2].Rank)
	assert.Equal(t, int64(3), ranked[2].Position)
}

func TestWindowBounds(t *testing.T) {
	cases := []struct {
		pos, radius, total int64
		from, to           int64
	}{
		{5, 2, 10, 3, 7},
		{1, 2, 10, 1, 5},
		{2, 2, 10, 1, 5},
		{10, 2, 10, 6, 10},
		{2, 5, 3, 1, 3},
		{1, 0, 1, 1, 1},
	}
	for _, tc := range cases {
		from, to := WindowBounds(tc.pos, tc.radius, tc.total)
		assert.Equal(t, tc.from, from, "from for %+v", tc)
		assert.Equal(t, tc.to, to, "to for %+v", tc)
	}
}

func TestTopPercentage(t *testing.T) {
	assert.Equal(t, 10, TopPercentage(1, 10))
	assert.Equal(t, 100, TopPercentage(3, 3))
	assert.Equal(t, 0, TopPercentage(1, 0))
}
