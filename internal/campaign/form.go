package campaign

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/onegreenvn/xreacher-gateway/internal/metrics"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/sirupsen/logrus"
)

// State is the position of a Form in the draft lifecycle
type State string

const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateCreating   State = "creating"
	StateTargeting  State = "targeting_in_progress"
)

var (
	// ErrSubmitInFlight is returned when the form is already being submitted
	ErrSubmitInFlight = errors.New("campaign submission already in progress")

	// ErrInvalidDraft is matched by *InvalidDraftError
	ErrInvalidDraft = errors.New("campaign draft is invalid")
)

// InvalidDraftError carries the validation errors of a rejected submit
type InvalidDraftError struct {
	Errors ValidationErrors
}

func (e *InvalidDraftError) Error() string {
	return ErrInvalidDraft.Error()
}

// Is makes errors.Is(err, ErrInvalidDraft) match
func (e *InvalidDraftError) Is(target error) bool {
	return target == ErrInvalidDraft
}

// API is the backend surface a Form needs to create and target a campaign
type API interface {
	TargetingAPI
	CreateCampaign(ctx context.Context, req *models.CreateCampaignRequest) (*models.Campaign, error)
}

// SubmitResult is returned by a successful submit. TargetingError is set when the
// campaign was created but its targeting job could not be started.
type SubmitResult struct {
	Campaign       *models.Campaign        `json:"campaign"`
	Progress       models.ScrapingProgress `json:"progress"`
	TargetingError string                  `json:"targeting_error,omitempty"`
}

// Snapshot is a read-only view of a Form
type Snapshot struct {
	State  State                `json:"state"`
	Draft  models.CampaignDraft `json:"draft"`
	File   *models.CSVFile      `json:"file,omitempty"`
	Errors ValidationErrors     `json:"errors"`
}

// Form holds one user's campaign draft and drives it through validation,
// creation and the secondary targeting job.
type Form struct {
	mu       sync.Mutex
	userID   string
	state    State
	draft    models.CampaignDraft
	file     *models.CSVFile
	errors   ValidationErrors
	accounts []models.TwitterAccount
	loaded   bool
	targeter *Targeter
}

// NewForm creates an empty form for userID
func NewForm(userID string, targeter *Targeter) *Form {
	return &Form{
		userID:   userID,
		state:    StateEditing,
		draft:    models.NewCampaignDraft(),
		errors:   ValidationErrors{},
		targeter: targeter,
	}
}

// Snapshot returns a copy of the form
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Draft returns the current draft
func (f *Form) Draft() models.CampaignDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Errors returns a copy of the current validation errors
func (f *Form) Errors() ValidationErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyErrors(f.errors)
}

// State returns the lifecycle state
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SetAccounts replaces the cached sender accounts used by validation
func (f *Form) SetAccounts(accounts []models.TwitterAccount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = append([]models.TwitterAccount(nil), accounts...)
	f.loaded = true
}

// Accounts returns the cached sender accounts
func (f *Form) Accounts() []models.TwitterAccount {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TwitterAccount(nil), f.accounts...)
}

// InvalidateAccounts drops the cached sender accounts so the next submit reloads them
func (f *Form) InvalidateAccounts() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = nil
	f.loaded = false
}

// AccountsLoaded reports whether the sender accounts are cached
func (f *Form) AccountsLoaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// Update applies the edited fields and clears their validation errors
func (f *Form) Update(patch models.CampaignDraftPatch) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateEditing {
		return f.snapshotLocked(), ErrSubmitInFlight
	}

	if patch.Name != nil {
		f.draft.Name = *patch.Name
		delete(f.errors, FieldName)
	}
	if patch.Description != nil {
		f.draft.Description = *patch.Description
	}
	if patch.TargetType != nil {
		f.draft.TargetType = *patch.TargetType
		delete(f.errors, FieldTargetType)
		delete(f.errors, FieldIdentifier)
		delete(f.errors, FieldCSV)
	}
	if patch.TargetIdentifier != nil {
		f.draft.TargetIdentifier = *patch.TargetIdentifier
		delete(f.errors, FieldIdentifier)
	}
	if patch.VerifiedOnly != nil {
		f.draft.VerifiedOnly = *patch.VerifiedOnly
	}
	if patch.MessageTemplate != nil {
		f.draft.MessageTemplate = *patch.MessageTemplate
		delete(f.errors, FieldTemplate)
	}
	if patch.SenderAccountID != nil {
		f.draft.SenderAccountID = *patch.SenderAccountID
		delete(f.errors, FieldSender)
	}
	if patch.DailyLimit != nil && *patch.DailyLimit > 0 {
		f.draft.DailyLimit = *patch.DailyLimit
	}
	if patch.MaxFollowers != nil && *patch.MaxFollowers > 0 {
		f.draft.MaxFollowers = *patch.MaxFollowers
	}

	return f.snapshotLocked(), nil
}

// AttachFile sets the CSV target list and clears its validation error
func (f *Form) AttachFile(file *models.CSVFile) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateEditing {
		return f.snapshotLocked(), ErrSubmitInFlight
	}
	f.file = file
	delete(f.errors, FieldCSV)
	return f.snapshotLocked(), nil
}

// Cancel discards the draft
func (f *Form) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateEditing {
		return ErrSubmitInFlight
	}
	f.resetLocked()
	return nil
}

// Submit validates the draft and, when valid, creates the campaign and starts
// exactly one targeting job. An invalid draft never reaches the backend.
// A failed creation keeps the draft so the user can retry.
func (f *Form) Submit(ctx context.Context, api API) (*SubmitResult, error) {
	f.mu.Lock()
	if f.state != StateEditing {
		f.mu.Unlock()
		metrics.DraftSubmissions.WithLabelValues("in_flight").Inc()
		return nil, ErrSubmitInFlight
	}

	f.state = StateValidating
	errs := Validate(f.draft, f.file, f.accounts)
	f.errors = errs
	if !errs.Empty() {
		f.state = StateEditing
		f.mu.Unlock()
		metrics.DraftSubmissions.WithLabelValues("invalid").Inc()
		return nil, &InvalidDraftError{Errors: copyErrors(errs)}
	}

	draft := f.draft
	file := f.file
	f.state = StateCreating
	f.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"user_id": f.userID, "target_type": draft.TargetType})

	created, err := api.CreateCampaign(ctx, createRequest(draft))
	if err != nil {
		f.setState(StateEditing)
		metrics.DraftSubmissions.WithLabelValues("create_failed").Inc()
		log.Warnf("Failed to create campaign: %v", err)
		return nil, err
	}

	f.setState(StateTargeting)
	result := &SubmitResult{Campaign: created}

	progress, err := f.targeter.Start(api, created, SpecFromDraft(f.userID, draft, file))
	if err != nil {
		log.WithField("campaign_id", created.ID).Warnf("Failed to start targeting job: %v", err)
		result.TargetingError = err.Error()
	}
	result.Progress = progress

	f.mu.Lock()
	f.resetLocked()
	f.mu.Unlock()

	metrics.DraftSubmissions.WithLabelValues("created").Inc()
	log.WithField("campaign_id", created.ID).Info("Campaign created from draft")
	return result, nil
}

func (f *Form) setState(state State) {
	f.mu.Lock()
	f.state = state
	f.mu.Unlock()
}

func (f *Form) resetLocked() {
	f.draft = models.NewCampaignDraft()
	f.file = nil
	f.errors = ValidationErrors{}
	f.state = StateEditing
}

func (f *Form) snapshotLocked() Snapshot {
	return Snapshot{
		State:  f.state,
		Draft:  f.draft,
		File:   f.file,
		Errors: copyErrors(f.errors),
	}
}

func createRequest(draft models.CampaignDraft) *models.CreateCampaignRequest {
	req := &models.CreateCampaignRequest{
		Name:            strings.TrimSpace(draft.Name),
		Description:     draft.Description,
		TargetType:      draft.TargetType,
		MessageTemplate: draft.MessageTemplate,
		SenderAccountID: draft.SenderAccountID,
		DailyLimit:      draft.DailyLimit,
	}
	if draft.TargetType == models.TargetUserFollowers {
		req.TargetUsername = strings.TrimSpace(draft.TargetIdentifier)
	}
	if req.DailyLimit <= 0 {
		req.DailyLimit = models.DefaultDailyLimit
	}
	return req
}

func copyErrors(errs ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for k, v := range errs {
		out[k] = v
	}
	return out
}

// Registry holds one Form per user
type Registry struct {
	mu       sync.Mutex
	forms    map[string]*Form
	targeter *Targeter
}

// NewRegistry creates an empty registry whose forms share targeter
func NewRegistry(targeter *Targeter) *Registry {
	return &Registry{
		forms:    make(map[string]*Form),
		targeter: targeter,
	}
}

// Form returns the form of userID, creating it on first use
func (r *Registry) Form(userID string) *Form {
	r.mu.Lock()
	defer r.mu.Unlock()

	form, ok := r.forms[userID]
	if !ok {
		form = NewForm(userID, r.targeter)
		r.forms[userID] = form
	}
	return form
}

// Targeter returns the shared targeting job runner
func (r *Registry) Targeter() *Targeter {
	return r.targeter
}
