package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"progression-service/internal/app"
	"progression-service/internal/domain"
)

// LeaderboardHandler serves the global ranking and the profile standing.
type LeaderboardHandler struct {
	responder
	service *app.LeaderboardService
}

func NewLeaderboardHandler(service *app.LeaderboardService, r responder) *LeaderboardHandler {
	return &LeaderboardHandler{responder: r, service: service}
}

func rankedUser(e domain.RankedUser) gin.H {
	return gin.H{
		"rank":     e.Rank,
		"position": e.Position,
		"user": gin.H{
			"id":         e.User.ID,
			"username":   e.User.Username,
			"avatar_url": e.User.AvatarURL,
			"xp":         e.User.XP,
			"level":      e.User.Level,
			"streak":     e.User.Streak,
			"joined_at":  e.User.CreatedAt,
		},
	}
}

func podium(entries []domain.RankedUser) []gin.H {
	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"position": e.Position,
			"user": gin.H{
				"id":         e.User.ID,
				"username":   e.User.Username,
				"avatar_url": e.User.AvatarURL,
				"xp":         e.User.XP,
				"level":      e.User.Level,
			},
		})
	}
	return out
}

// List is the global leaderboard. Authentication is optional; when present
// the caller's row is flagged and their standing attached.
func (h *LeaderboardHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	page, err := h.service.GlobalPage(ctx, queryInt(c, "page", 1), queryInt(c, "limit", 50))
	if err != nil {
		h.failRead(c, err, "Failed to get leaderboard")
		return
	}
	summary, err := h.service.Summary(ctx)
	if err != nil {
		h.failRead(c, err, "Failed to get leaderboard")
		return
	}

	current, authenticated := userID(c)
	rows := make([]gin.H, 0, len(page.Entries))
	for _, e := range page.Entries {
		row := rankedUser(e)
		row["is_current_user"] = authenticated && e.User.ID == current
		rows = append(rows, row)
	}

	var position interface{}
	if authenticated {
		standing, err := h.service.PositionOf(ctx, current)
		if err == nil {
			position = gin.H{"rank": standing.Entry.Rank, "position": standing.Entry.Position}
		}
	}

	respondOK(c, http.StatusOK, "Leaderboard retrieved successfully", gin.H{
		"leaderboard":           rows,
		"podium":                podium(summary.Podium),
		"stats":                 summary.Stats,
		"current_user_position": position,
		"pagination":            pagination(page.Page, page.Limit, page.TotalUsers),
	})
}

func (h *LeaderboardHandler) Top(c *gin.Context) {
	entries, err := h.service.TopN(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		h.failRead(c, err, "Failed to get top users")
		return
	}
	rows := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, rankedUser(e))
	}
	respondOK(c, http.StatusOK, "Top users retrieved successfully", gin.H{"top_users": rows})
}

func (h *LeaderboardHandler) Stats(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.failRead(c, err, "Failed to get leaderboard statistics")
		return
	}
	respondOK(c, http.StatusOK, "Leaderboard statistics retrieved successfully", gin.H{
		"stats":        summary.Stats,
		"podium":       podium(summary.Podium),
		"generated_at": summary.GeneratedAt,
	})
}

// Position is the profile view: standing, neighbors and level progress.
func (h *LeaderboardHandler) Position(c *gin.Context) {
	radius := queryInt(c, "neighbors", 2)
	if radius < 0 || radius > 25 {
		radius = 2
	}
	me := mustUserID(c)
	profile, err := h.service.Profile(c.Request.Context(), me, int64(radius))
	if err != nil {
		h.failRead(c, err, "Failed to get leaderboard position")
		return
	}

	neighbors := make([]gin.H, 0, len(profile.Neighbors))
	for _, e := range profile.Neighbors {
		row := rankedUser(e)
		row["xp_difference"] = e.User.XP - profile.Entry.User.XP
		row["is_current_user"] = e.User.ID == me
		neighbors = append(neighbors, row)
	}

	respondOK(c, http.StatusOK, "Leaderboard position retrieved successfully", gin.H{
		"user": rankedUser(profile.Entry)["user"],
		"position": gin.H{
			"rank":           profile.Entry.Rank,
			"position":       profile.Entry.Position,
			"total_users":    profile.TotalUsers,
			"top_percentage": profile.TopPercentage,
		},
		"level_info": gin.H{
			"current_level": profile.Entry.User.Level,
			"xp_progress":   profile.Level,
		},
		"neighbors": neighbors,
	})
}
