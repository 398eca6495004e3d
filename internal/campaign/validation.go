package campaign

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/onegreenvn/xreacher-gateway/internal/models"
)

const (
	MinTemplateLength = 10
	MaxTemplateLength = 280
	MaxUsernameLength = 15
	MaxCSVSize        = 10 << 20
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	listIDPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// Field names used as keys in ValidationErrors
const (
	FieldName       = "name"
	FieldSender     = "sender_account_id"
	FieldTemplate   = "message_template"
	FieldTargetType = "target_type"
	FieldIdentifier = "target_identifier"
	FieldCSV        = "csv_file"
)

// ValidationErrors maps a draft field to its first violated rule
type ValidationErrors map[string]string

// Empty reports whether the draft passed validation
func (e ValidationErrors) Empty() bool {
	return len(e) == 0
}

// Validate checks a draft against every rule at once. It never touches the network:
// sender accounts are checked against the cached account list.
func Validate(draft models.CampaignDraft, file *models.CSVFile, accounts []models.TwitterAccount) ValidationErrors {
	errs := ValidationErrors{}

	if strings.TrimSpace(draft.Name) == "" {
		errs[FieldName] = "Campaign name is required"
	}

	if draft.SenderAccountID == 0 {
		errs[FieldSender] = "Please select a sender account"
	} else if !hasConnectedAccount(accounts, draft.SenderAccountID) {
		errs[FieldSender] = "Selected sender account is not connected"
	}

	switch length := utf8.RuneCountInString(draft.MessageTemplate); {
	case strings.TrimSpace(draft.MessageTemplate) == "":
		errs[FieldTemplate] = "Message template is required"
	case length < MinTemplateLength:
		errs[FieldTemplate] = "Message template must be at least 10 characters"
	case length > MaxTemplateLength:
		errs[FieldTemplate] = "Message template must be 280 characters or less"
	}

	if !draft.TargetType.Valid() {
		errs[FieldTargetType] = "Select a valid target type"
	}

	identifier := strings.TrimSpace(draft.TargetIdentifier)
	switch draft.TargetType {
	case models.TargetUserFollowers:
		if msg := validateUsername(identifier); msg != "" {
			errs[FieldIdentifier] = msg
		}
	case models.TargetListMembers:
		if identifier == "" {
			errs[FieldIdentifier] = "List ID is required"
		} else if !listIDPattern.MatchString(identifier) {
			errs[FieldIdentifier] = "List ID must be numeric"
		}
	case models.TargetCSVUpload:
		if msg := ValidateCSV(file); msg != "" {
			errs[FieldCSV] = msg
		}
	}

	return errs
}

func validateUsername(username string) string {
	switch {
	case username == "":
		return "Target username is required"
	case strings.Contains(username, "@"):
		return "Enter the username without @"
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		return "Username must be 15 characters or less"
	case !usernamePattern.MatchString(username):
		return "Username can only contain letters, numbers, and underscores"
	}
	return ""
}

// ValidateCSV checks an uploaded target list, returning the violated rule or ""
func ValidateCSV(file *models.CSVFile) string {
	switch {
	case file == nil:
		return "Please upload a CSV file"
	case !isCSV(file):
		return "File must be a CSV"
	case file.Size > MaxCSVSize:
		return "File must be 10MB or smaller"
	}
	return ""
}

func isCSV(file *models.CSVFile) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(file.ContentType, ";")[0]))
	if mediaType == "text/csv" {
		return true
	}
	return strings.EqualFold(filepath.Ext(file.Name), ".csv")
}

func hasConnectedAccount(accounts []models.TwitterAccount, id int64) bool {
	for _, account := range accounts {
		if account.ID == id {
			return account.Connected()
		}
	}
	return false
}
