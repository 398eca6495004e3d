package models

// CampaignStatus is the lifecycle status of a backend campaign
type CampaignStatus string

const (
	CampaignDraftStatus CampaignStatus = "draft"
	CampaignActive      CampaignStatus = "active"
	CampaignPaused      CampaignStatus = "paused"
	CampaignCompleted   CampaignStatus = "completed"
	CampaignFailed      CampaignStatus = "failed"
)

// TargetType selects how a campaign acquires its recipients
type TargetType string

const (
	TargetUserFollowers TargetType = "user_followers"
	TargetListMembers   TargetType = "list_members"
	TargetCSVUpload     TargetType = "csv_upload"
)

// Valid reports whether t is a known target type
func (t TargetType) Valid() bool {
	switch t {
	case TargetUserFollowers, TargetListMembers, TargetCSVUpload:
		return true
	}
	return false
}

const (
	DefaultDailyLimit   = 50
	DefaultMaxFollowers = 1000
)

// Campaign represents a backend campaign record
type Campaign struct {
	ID               int64          `json:"id" example:"42"`
	Name             string         `json:"name" example:"Founders outreach"`
	Description      string         `json:"description,omitempty"`
	Status           CampaignStatus `json:"status" example:"draft"`
	TargetType       TargetType     `json:"target_type" example:"user_followers"`
	TargetUsername   string         `json:"target_username,omitempty" example:"elonmusk"`
	MessageTemplate  string         `json:"message_template"`
	TwitterAccountID int64          `json:"twitter_account_id,omitempty"`
	TotalTargets     int            `json:"total_targets"`
	MessagesSent     int            `json:"messages_sent"`
	RepliesReceived  int            `json:"replies_received"`
	PositiveReplies  int            `json:"positive_replies"`
	NegativeReplies  int            `json:"negative_replies"`
	DailyLimit       int            `json:"daily_limit"`
	CreatedAt        string         `json:"created_at,omitempty"`
	UpdatedAt        string         `json:"updated_at,omitempty"`
}

// CampaignDraft is the form-held campaign before creation
type CampaignDraft struct {
	Name             string     `json:"name" example:"Founders outreach"`
	Description      string     `json:"description,omitempty"`
	TargetType       TargetType `json:"target_type" example:"user_followers"`
	TargetIdentifier string     `json:"target_identifier" example:"elonmusk"`
	VerifiedOnly     bool       `json:"verified_only"`
	MessageTemplate  string     `json:"message_template" example:"Hi {name}, loved your last thread!"`
	SenderAccountID  int64      `json:"sender_account_id" example:"7"`
	DailyLimit       int        `json:"daily_limit" example:"50"`
	MaxFollowers     int        `json:"max_followers,omitempty" example:"1000"`
}

// NewCampaignDraft returns an empty draft with backend defaults applied
func NewCampaignDraft() CampaignDraft {
	return CampaignDraft{
		TargetType:   TargetUserFollowers,
		DailyLimit:   DefaultDailyLimit,
		MaxFollowers: DefaultMaxFollowers,
	}
}

// CampaignDraftPatch carries the fields edited by the user; nil fields are untouched
type CampaignDraftPatch struct {
	Name             *string     `json:"name,omitempty"`
	Description      *string     `json:"description,omitempty"`
	TargetType       *TargetType `json:"target_type,omitempty"`
	TargetIdentifier *string     `json:"target_identifier,omitempty"`
	VerifiedOnly     *bool       `json:"verified_only,omitempty"`
	MessageTemplate  *string     `json:"message_template,omitempty"`
	SenderAccountID  *int64      `json:"sender_account_id,omitempty"`
	DailyLimit       *int        `json:"daily_limit,omitempty"`
	MaxFollowers     *int        `json:"max_followers,omitempty"`
}

// CreateCampaignRequest is the backend create-campaign payload
type CreateCampaignRequest struct {
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	TargetType      TargetType `json:"target_type"`
	TargetUsername  string     `json:"target_username,omitempty"`
	MessageTemplate string     `json:"message_template"`
	SenderAccountID int64      `json:"sender_account_id"`
	DailyLimit      int        `json:"daily_limit"`
}

// CampaignListFilter narrows the backend campaign list
type CampaignListFilter struct {
	Status string
	Limit  int
	Offset int
}

// CSVFile is a target list attached to a draft
type CSVFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}
