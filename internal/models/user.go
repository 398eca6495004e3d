package models

// User represents a dashboard user as returned by the backend
type User struct {
	ID               int64  `json:"id"`
	Email            string `json:"email"`
	Username         string `json:"username"`
	IsActive         bool   `json:"is_active"`
	IsPremium        bool   `json:"is_premium"`
	SubscriptionPlan string `json:"subscription_plan,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}
