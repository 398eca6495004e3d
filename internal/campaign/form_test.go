package campaign

import (
	"context"
	"errors"
	"testing"

	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func fillForm(t *testing.T, form *Form) {
	t.Helper()
	draft := validDraft()
	_, err := form.Update(models.CampaignDraftPatch{
		Name:             &draft.Name,
		TargetType:       &draft.TargetType,
		TargetIdentifier: &draft.TargetIdentifier,
		MessageTemplate:  &draft.MessageTemplate,
		SenderAccountID:  &draft.SenderAccountID,
	})
	require.NoError(t, err)
}

func TestSubmitInvalidDraftMakesNoCall(t *testing.T) {
	form := NewForm("u1", newTestTargeter())
	form.SetAccounts(testAccounts)
	fillForm(t, form)
	_, err := form.Update(models.CampaignDraftPatch{Name: strPtr("")})
	require.NoError(t, err)

	api := &fakeAPI{}
	result, err := form.Submit(context.Background(), api)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidDraft)

	var invalid *InvalidDraftError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, ValidationErrors{FieldName: "Campaign name is required"}, invalid.Errors)
	assert.Equal(t, 0, api.creates)
	assert.Equal(t, StateEditing, form.State())
	assert.Equal(t, invalid.Errors, form.Errors())
}

func TestUpdateClearsEditedFieldError(t *testing.T) {
	form := NewForm("u1", newTestTargeter())
	form.SetAccounts(testAccounts)

	_, err := form.Submit(context.Background(), &fakeAPI{})
	require.ErrorIs(t, err, ErrInvalidDraft)
	require.Contains(t, form.Errors(), FieldName)
	require.Contains(t, form.Errors(), FieldTemplate)

	snap, err := form.Update(models.CampaignDraftPatch{Name: strPtr("Launch")})
	require.NoError(t, err)
	assert.NotContains(t, snap.Errors, FieldName)
	assert.Contains(t, snap.Errors, FieldTemplate)
}

func TestSubmitCreatesCampaignAndStartsOneJob(t *testing.T) {
	targeter := newTestTargeter()
	form := NewForm("u1", targeter)
	form.SetAccounts(testAccounts)
	fillForm(t, form)

	api := &fakeAPI{scraped: 4}
	result, err := form.Submit(context.Background(), api)
	require.NoError(t, err)
	require.NotNil(t, result.Campaign)
	assert.Empty(t, result.TargetingError)
	assert.Equal(t, "elonmusk", result.Campaign.TargetUsername)
	assert.Equal(t, models.DefaultDailyLimit, result.Campaign.DailyLimit)

	targeter.Wait()
	assert.Equal(t, 1, api.creates)
	assert.Len(t, api.followers, 1)
	assert.Empty(t, api.lists)
	assert.Empty(t, api.uploads)

	assert.Equal(t, StateEditing, form.State())
	assert.Equal(t, models.NewCampaignDraft(), form.Draft())
	assert.Empty(t, form.Errors())

	campaigns := api.ListCampaigns()
	require.Len(t, campaigns, 1)
	assert.Equal(t, 4, campaigns[0].TotalTargets)
}

func TestSubmitSendsTrimmedIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		targetType models.TargetType
		identifier string
		want       string
	}{
		{"followers", models.TargetUserFollowers, " elonmusk ", "elonmusk"},
		{"list members", models.TargetListMembers, "  12345 ", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targeter := newTestTargeter()
			form := NewForm("u1", targeter)
			form.SetAccounts(testAccounts)
			fillForm(t, form)
			targetType := tt.targetType
			_, err := form.Update(models.CampaignDraftPatch{
				TargetType:       &targetType,
				TargetIdentifier: strPtr(tt.identifier),
			})
			require.NoError(t, err)

			api := &fakeAPI{scraped: 1}
			_, err = form.Submit(context.Background(), api)
			require.NoError(t, err)
			targeter.Wait()

			if tt.targetType == models.TargetListMembers {
				require.Len(t, api.lists, 1)
				assert.Equal(t, tt.want, api.lists[0].ListID)
			} else {
				require.Len(t, api.followers, 1)
				assert.Equal(t, tt.want, api.followers[0].Username)
			}
		})
	}
}

func TestSubmitCreateFailureKeepsDraft(t *testing.T) {
	form := NewForm("u1", newTestTargeter())
	form.SetAccounts(testAccounts)
	fillForm(t, form)
	before := form.Draft()

	api := &fakeAPI{createErr: &backend.APIError{StatusCode: 400, Message: "Invalid sender account"}}
	_, err := form.Submit(context.Background(), api)
	require.Error(t, err)
	assert.Equal(t, "Invalid sender account", backend.Message(err, ""))
	assert.Equal(t, StateEditing, form.State())
	assert.Equal(t, before, form.Draft())
	assert.Empty(t, api.followers)
}

func TestSubmitTargetingFailureStillCreatesCampaign(t *testing.T) {
	targeter := newTestTargeter()
	form := NewForm("u1", targeter)
	form.SetAccounts(testAccounts)
	fillForm(t, form)

	api := &fakeAPI{scrapeErr: &backend.APIError{StatusCode: 404, Message: "User not found"}}
	result, err := form.Submit(context.Background(), api)
	require.NoError(t, err)
	targeter.Wait()

	campaigns := api.ListCampaigns()
	require.Len(t, campaigns, 1)
	assert.Equal(t, result.Campaign.ID, campaigns[0].ID)
	assert.Equal(t, 0, campaigns[0].TotalTargets)

	progress, ok := targeter.Board().Get("u1", result.Campaign.ID)
	require.True(t, ok)
	assert.Equal(t, models.TargetingFailed, progress.Status)
}

// slowCreateAPI blocks CreateCampaign until released
type slowCreateAPI struct {
	*fakeAPI
	entered chan struct{}
	release chan struct{}
}

func (s *slowCreateAPI) CreateCampaign(ctx context.Context, req *models.CreateCampaignRequest) (*models.Campaign, error) {
	close(s.entered)
	<-s.release
	return s.fakeAPI.CreateCampaign(ctx, req)
}

func TestSubmitRejectsSecondSubmitWhileInFlight(t *testing.T) {
	targeter := newTestTargeter()
	form := NewForm("u1", targeter)
	form.SetAccounts(testAccounts)
	fillForm(t, form)

	api := &slowCreateAPI{fakeAPI: &fakeAPI{}, entered: make(chan struct{}), release: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		_, err := form.Submit(context.Background(), api)
		done <- err
	}()
	<-api.entered

	assert.Equal(t, StateCreating, form.State())
	_, err := form.Submit(context.Background(), api)
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	_, err = form.Update(models.CampaignDraftPatch{Name: strPtr("other")})
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(api.release)
	require.NoError(t, <-done)
	targeter.Wait()
	assert.Equal(t, 1, api.creates)
}

func TestCancelResetsDraft(t *testing.T) {
	form := NewForm("u1", newTestTargeter())
	fillForm(t, form)
	_, err := form.AttachFile(&models.CSVFile{Name: "a.csv"})
	require.NoError(t, err)

	require.NoError(t, form.Cancel())
	snap := form.Snapshot()
	assert.Equal(t, models.NewCampaignDraft(), snap.Draft)
	assert.Nil(t, snap.File)
}

func TestRegistryReturnsSameForm(t *testing.T) {
	registry := NewRegistry(newTestTargeter())
	assert.Same(t, registry.Form("u1"), registry.Form("u1"))
	assert.NotSame(t, registry.Form("u1"), registry.Form("u2"))
}

func TestSetAccountsMarksLoaded(t *testing.T) {
	form := NewForm("u1", newTestTargeter())
	assert.False(t, form.AccountsLoaded())

	form.SetAccounts(nil)
	assert.True(t, form.AccountsLoaded())
	assert.Empty(t, form.Accounts())

	form.SetAccounts(testAccounts)
	assert.Equal(t, testAccounts, form.Accounts())
}

func TestInvalidateAccountsForcesReload(t *testing.T) {
	form := NewForm("u1", newTestTargeter())
	form.SetAccounts(testAccounts)

	form.InvalidateAccounts()
	assert.False(t, form.AccountsLoaded())
	assert.Empty(t, form.Accounts())
}
