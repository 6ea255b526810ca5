// internal/common/sheets/client.go
package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type Client struct {
	service *sheets.Service
}

type Config struct {
	CredentialsPath string
	CredentialsJSON []byte
	// Endpoint overrides the API base URL; used with WithoutAuth against fakes.
	Endpoint    string
	WithoutAuth bool
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var opts []option.ClientOption

	switch {
	case cfg.WithoutAuth:
		opts = append(opts, option.WithoutAuthentication())
	case cfg.CredentialsPath != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	case len(cfg.CredentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	default:
		return nil, fmt.Errorf("sheets: credentials path or JSON is required")
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}

	return &Client{service: service}, nil
}

// clearRange widens range_ to its whole sheet so rows left over from a longer
// earlier write are removed. Without a sheet name the first sheet is meant.
func clearRange(range_ string) string {
	if i := strings.LastIndex(range_, "!"); i >= 0 {
		return range_[:i]
	}
	if cellRef.MatchString(range_) {
		return "A:ZZZ"
	}
	return range_
}

var cellRef = regexp.MustCompile(`^[A-Za-z]{1,3}[0-9]*(:[A-Za-z]{1,3}[0-9]*)?$`)

// ReplaceValues clears the sheet named by range_ and writes values starting at the
// top-left cell of range_.
func (c *Client) ReplaceValues(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) (int64, error) {
	if c.service == nil {
		return 0, fmt.Errorf("sheets: service is nil")
	}

	target := clearRange(range_)
	if _, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, target, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("sheets: clear %s: %w", target, err)
	}

	resp, err := c.service.Spreadsheets.Values.Update(spreadsheetID, range_, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: update %s: %w", range_, err)
	}

	return resp.UpdatedRows, nil
}
