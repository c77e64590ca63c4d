package statusapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/gatici/mongodb-operator/model"
	"net/http"
	"strings"
)

// Client reports the unit status to a remote Server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client // http.DefaultClient if nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) url() string {
	return strings.TrimSuffix(c.BaseURL, "/") + StatusPath
}

func (c *Client) Report(ctx context.Context, status model.UnitStatus) error {
	buffer := new(bytes.Buffer)
	if err := json.NewEncoder(buffer).Encode(status); err != nil {
		return fmt.Errorf("could not encode unit status: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url(), buffer)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("reporting unit status failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return responseError(resp)
	}
	return nil
}

// Status fetches the last status reported to the remote Server.
func (c *Client) Status(ctx context.Context) (Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(), nil)
	if err != nil {
		return Report{}, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("fetching unit status failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Report{}, responseError(resp)
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return Report{}, fmt.Errorf("could not decode unit status: %w", err)
	}
	return report, nil
}

func responseError(resp *http.Response) error {
	var apiErr errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
		return fmt.Errorf("status API returned %d", resp.StatusCode)
	}
	return fmt.Errorf("status API returned %d: %s", resp.StatusCode, apiErr.Error)
}
