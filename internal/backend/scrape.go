package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/onegreenvn/xreacher-gateway/internal/models"
)

// ScrapeFollowers fills a campaign with a user's followers
func (c *Client) ScrapeFollowers(ctx context.Context, req *models.ScrapeFollowersRequest) (*models.ScrapeResult, error) {
	var resp models.ScrapeResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/scrape/followers", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScrapeListMembers fills a campaign with the members of a list
func (c *Client) ScrapeListMembers(ctx context.Context, req *models.ScrapeListMembersRequest) (*models.ScrapeResult, error) {
	var resp models.ScrapeResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/scrape/list-members", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadCSV sends a target list as multipart/form-data with a "file" field
func (c *Client) UploadCSV(ctx context.Context, campaignID int64, file *models.CSVFile) (*models.CSVUploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("campaign_id", strconv.FormatInt(campaignID, 10)); err != nil {
		return nil, fmt.Errorf("failed to write campaign_id: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var resp models.CSVUploadResult
	if err := c.do(ctx, http.MethodPost, "/api/scrape/upload-csv", &buf, writer.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
