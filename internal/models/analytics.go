package models

// DashboardAnalytics summarises outreach performance for the dashboard home
type DashboardAnalytics struct {
	TotalCampaigns    int     `json:"total_campaigns"`
	ActiveCampaigns   int     `json:"active_campaigns"`
	TotalTargets      int     `json:"total_targets"`
	MessagesSent      int     `json:"messages_sent"`
	RepliesReceived   int     `json:"replies_received"`
	PositiveReplies   int     `json:"positive_replies"`
	ReplyRate         float64 `json:"reply_rate"`
	ConnectedAccounts int     `json:"connected_accounts"`
}
