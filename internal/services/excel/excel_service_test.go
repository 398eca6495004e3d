package excel

import (
	"bytes"
	"testing"

	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportCampaigns(t *testing.T) {
	svc := NewExcelService()

	result, err := svc.ExportCampaigns("7", []models.Campaign{
		{ID: 1, Name: "Launch", Status: models.CampaignActive, TargetType: models.TargetUserFollowers, TargetUsername: "acme", TotalTargets: 120, MessagesSent: 40, RepliesReceived: 6},
		{ID: 2, Name: "Lists", Status: models.CampaignDraftStatus, TargetType: models.TargetListMembers},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.Contains(t, result.Filename, "campaigns_7_")

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(campaignSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "name", rows[0][1])
	assert.Equal(t, "Launch", rows[1][1])
	assert.Equal(t, "120", rows[1][5])
	assert.Equal(t, "15", rows[1][10])
	assert.Equal(t, "list_members", rows[2][3])
}

func TestExportCampaignsEmpty(t *testing.T) {
	result, err := NewExcelService().ExportCampaigns("7", nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue(campaignSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "no campaigns found", value)
}

func TestReplyRate(t *testing.T) {
	assert.Equal(t, 0.0, ReplyRate(models.Campaign{}))
	assert.Equal(t, 33.3, ReplyRate(models.Campaign{MessagesSent: 3, RepliesReceived: 1}))
}
