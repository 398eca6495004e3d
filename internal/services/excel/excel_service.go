package excel

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/xuri/excelize/v2"
)

const campaignSheet = "Campaigns"

var campaignColumns = []string{
	"id", "name", "status", "target_type", "target_username",
	"total_targets", "messages_sent", "replies_received",
	"positive_replies", "negative_replies", "reply_rate",
	"daily_limit", "created_at",
}

// Service builds Excel workbooks of campaign data
type Service struct{}

// NewExcelService creates a new Excel service instance
func NewExcelService() *Service {
	return &Service{}
}

// ExportResult is an in-memory workbook ready to be streamed
type ExportResult struct {
	Filename string
	Rows     int
	Data     []byte
}

// ExportCampaigns writes one row per campaign with its outreach counters
func (s *Service) ExportCampaigns(userID string, campaigns []models.Campaign) (*ExportResult, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), campaignSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	for i, col := range campaignColumns {
		f.SetCellValue(campaignSheet, cellName(i+1, 1), col)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFFF00"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err == nil {
		f.SetCellStyle(campaignSheet, "A1", cellName(len(campaignColumns), 1), headerStyle)
	}

	statusStyles := map[models.CampaignStatus]int{}
	for status, color := range map[models.CampaignStatus]string{
		models.CampaignActive:    "C6EFCE", // Green
		models.CampaignPaused:    "FFC000", // Orange
		models.CampaignFailed:    "D9D9D9", // Gray
		models.CampaignCompleted: "B4C6E7", // Light blue
	} {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err == nil {
			statusStyles[status] = style
		}
	}

	for i, col := range campaignColumns {
		letter, _ := excelize.ColumnNumberToName(i + 1)
		width := 15.0
		switch col {
		case "name":
			width = 30.0
		case "target_username", "target_type", "created_at":
			width = 20.0
		}
		f.SetColWidth(campaignSheet, letter, letter, width)
	}

	for j, c := range campaigns {
		row := j + 2
		values := []interface{}{
			c.ID, c.Name, string(c.Status), string(c.TargetType), c.TargetUsername,
			c.TotalTargets, c.MessagesSent, c.RepliesReceived,
			c.PositiveReplies, c.NegativeReplies, ReplyRate(c),
			c.DailyLimit, c.CreatedAt,
		}
		for i, value := range values {
			f.SetCellValue(campaignSheet, cellName(i+1, row), value)
		}
		if style, ok := statusStyles[c.Status]; ok {
			f.SetCellStyle(campaignSheet, cellName(1, row), cellName(len(campaignColumns), row), style)
		}
	}

	if len(campaigns) == 0 {
		f.SetCellValue(campaignSheet, "A2", "no campaigns found")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return &ExportResult{
		Filename: fmt.Sprintf("campaigns_%s_%d.xlsx", userID, time.Now().Unix()),
		Rows:     len(campaigns),
		Data:     bytes.Clone(buf.Bytes()),
	}, nil
}

// ReplyRate returns replies per sent message as a percentage rounded to one decimal
func ReplyRate(c models.Campaign) float64 {
	if c.MessagesSent == 0 {
		return 0
	}
	rate := float64(c.RepliesReceived) / float64(c.MessagesSent) * 100
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(rate, 'f', 1, 64), 64)
	return rounded
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
