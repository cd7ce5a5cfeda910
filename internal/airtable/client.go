package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/hackvision/vision/internal/config"
)

// Record is one Airtable record: an opaque id plus its field map.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Client wraps the pieces of the Airtable record API the review pipeline
// needs: reading a submission, listing the approved-projects registry and
// writing review results back.
type Client interface {
	GetRecord(ctx context.Context, baseID, table, recordID string) (*Record, error)
	ListRecords(ctx context.Context, baseID, table string) ([]Record, error)
	UpdateRecord(ctx context.Context, baseID, table, recordID string, fields map[string]any) error
}

type HTTPClient struct {
	apiURL string
	token  string
	client *http.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(cfg *config.Config) *HTTPClient {
	return &HTTPClient{
		apiURL: cfg.Airtable.APIURL,
		token:  cfg.Airtable.Token,
		client: &http.Client{Timeout: cfg.Airtable.Timeout},
	}
}

func (c *HTTPClient) GetRecord(ctx context.Context, baseID, table, recordID string) (*Record, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/%s",
		c.apiURL, url.PathEscape(baseID), url.PathEscape(table), url.PathEscape(recordID))

	raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, errors.Wrap(err, "decoding record")
	}
	return &record, nil
}

// ListRecords follows the offset pagination until the table is exhausted.
func (c *HTTPClient) ListRecords(ctx context.Context, baseID, table string) ([]Record, error) {
	var records []Record
	offset := ""

	for {
		endpoint := fmt.Sprintf("%s/%s/%s", c.apiURL, url.PathEscape(baseID), url.PathEscape(table))
		if offset != "" {
			endpoint = fmt.Sprintf("%s?offset=%s", endpoint, url.QueryEscape(offset))
		}

		raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		var page struct {
			Records []Record `json:"records"`
			Offset  string   `json:"offset"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, errors.Wrap(err, "decoding record page")
		}

		records = append(records, page.Records...)
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

func (c *HTTPClient) UpdateRecord(ctx context.Context, baseID, table, recordID string, fields map[string]any) error {
	endpoint := fmt.Sprintf("%s/%s/%s/%s",
		c.apiURL, url.PathEscape(baseID), url.PathEscape(table), url.PathEscape(recordID))

	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return errors.Wrap(err, "encoding record update")
	}

	if _, err := c.do(ctx, http.MethodPatch, endpoint, body); err != nil {
		return err
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "calling airtable api")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading airtable response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("airtable api returned status %d", resp.StatusCode)
	}
	return raw, nil
}

// StringField reads a field as string, tolerating missing or non-string values.
func (r *Record) StringField(name string) string {
	if r == nil || name == "" {
		return ""
	}
	if v, ok := r.Fields[name].(string); ok {
		return v
	}
	return ""
}

// NumberField reads a field as float64, tolerating missing or non-numeric values.
func (r *Record) NumberField(name string) float64 {
	if r == nil || name == "" {
		return 0
	}
	switch v := r.Fields[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
