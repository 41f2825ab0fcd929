package stats

// UserStatsRequest asks for a user's accumulated study history.
type UserStatsRequest struct {
	UserID      string `json:"user_id"`
	RecentLimit int    `json:"recent_limit"`
}

// UserStatsResponse carries totals plus the most recent sessions.
type UserStatsResponse struct {
	Totals UserTotals      `json:"totals"`
	Recent []SessionRecord `json:"recent,omitempty"`
}
