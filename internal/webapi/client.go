// Package webapi reads record collections from an OData v4 Web API endpoint
// shaped like the Dataverse Web API.
package webapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"multilookup/api/internal/fetch"
)

const (
	defaultAPIPath  = "/api/data/v9.2"
	maxResponseSize = 16 << 20
)

// Config describes one Web API endpoint.
type Config struct {
	BaseURL string
	Token   string
	// EntitySets maps a collection name to its entity set name. Collections
	// not listed use the collection name plus "s".
	EntitySets map[string]string
	Timeout    time.Duration
}

// Client implements fetch.RecordSource over HTTP.
type Client struct {
	baseURL    string
	token      string
	entitySets map[string]string
	http       *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.Contains(base, "/api/data/") {
		base += defaultAPIPath
	}
	sets := make(map[string]string, len(cfg.EntitySets))
	for collection, set := range cfg.EntitySets {
		sets[collection] = set
	}
	return &Client{
		baseURL:    base,
		token:      cfg.Token,
		entitySets: sets,
		http:       &http.Client{Timeout: timeout},
	}
}

// EntitySet returns the URL segment for collection.
func (c *Client) EntitySet(collection string) string {
	if set, ok := c.entitySets[collection]; ok && set != "" {
		return set
	}
	return collection + "s"
}

// RetrieveMultiple issues one GET for the active records of q.Collection.
func (c *Client) RetrieveMultiple(ctx context.Context, q fetch.Query) ([]fetch.Record, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(c.EntitySet(q.Collection)) + "?" + encodeQuery(q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("OData-MaxVersion", "4.0")
	req.Header.Set("OData-Version", "4.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", q.Collection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", q.Collection, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, responseError(resp.StatusCode, body)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("retrieve %s: response is not valid JSON", q.Collection)
	}
	return parseRecords(body, q), nil
}

// encodeQuery renders the OData system query options with spaces as %20.
func encodeQuery(q fetch.Query) string {
	params := []string{
		"$select=" + escape(q.DisplayColumn+","+q.IDColumn()),
		"$filter=" + escape(fmt.Sprintf("statecode eq %d", fetch.ActiveStateCode)),
	}
	if q.SortColumn != "" {
		params = append(params, "$orderby="+escape(q.SortColumn+" asc"))
	}
	return strings.Join(params, "&")
}

func escape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

func parseRecords(body []byte, q fetch.Query) []fetch.Record {
	idColumn := q.IDColumn()
	records := make([]fetch.Record, 0)
	gjson.GetBytes(body, "value").ForEach(func(_, row gjson.Result) bool {
		var record fetch.Record
		row.ForEach(func(key, value gjson.Result) bool {
			switch key.String() {
			case idColumn:
				record.ID = value.String()
			case q.DisplayColumn:
				record.Name = value.String()
			}
			return true
		})
		records = append(records, record)
		return true
	})
	return records
}

func responseError(status int, body []byte) error {
	message := strings.TrimSpace(gjson.GetBytes(body, "error.message").String())
	if message == "" {
		message = http.StatusText(status)
	}
	return &StatusError{Status: status, Message: message}
}

// StatusError is a non-2xx Web API response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}
