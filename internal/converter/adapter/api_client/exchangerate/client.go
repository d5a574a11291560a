package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/langowen/converter/internal/entities"
	"github.com/pkg/errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 1 << 20

type HTTPClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// latestResponse is the v6 "latest" payload of exchangerate-api.com.
type latestResponse struct {
	Result             string             `json:"result"`
	BaseCode           string             `json:"base_code"`
	TimeLastUpdateUnix int64              `json:"time_last_update_unix"`
	ConversionRates    map[string]float64 `json:"conversion_rates"`
	ErrorType          string             `json:"error-type,omitempty"`
}

func NewHTTPClient(baseURL, apiKey string, client *http.Client) (*HTTPClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, entities.NewError(entities.KindConfig, "Exchange rate API key is not configured.", entities.ErrConfig)
	}
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, entities.NewError(entities.KindConfig, "Exchange rate API URL is invalid.", entities.ErrConfig)
	}
	if client == nil {
		client = &http.Client{}
	}

	return &HTTPClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}, nil
}

// Latest loads every rate quoted against base.
func (c *HTTPClient) Latest(ctx context.Context, base string) (*entities.RateTable, error) {
	const op = "exchangerate.Latest"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.latestURL(base), nil)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(networkError(err), op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(networkError(err), op)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrap(entities.NewError(
			entities.KindNetwork,
			statusMessage(resp.StatusCode),
			fmt.Errorf("bad status: %s", resp.Status),
		), op)
	}

	var payload latestResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(entities.NewError(
			entities.KindMalformedResponse, "Invalid response format.", err,
		), op)
	}

	if payload.Result != "" && payload.Result != "success" {
		return nil, errors.Wrap(entities.NewError(
			entities.KindNetwork,
			"Failed to fetch data from the API.",
			fmt.Errorf("result=%s error-type=%s", payload.Result, payload.ErrorType),
		), op)
	}

	if len(payload.ConversionRates) == 0 {
		return nil, errors.Wrap(entities.NewError(
			entities.KindMalformedResponse, "Invalid response format.", errors.New("conversion_rates missing or empty"),
		), op)
	}

	updated := time.Now()
	if payload.TimeLastUpdateUnix > 0 {
		updated = time.Unix(payload.TimeLastUpdateUnix, 0)
	}

	return entities.NewRateTable(base, payload.ConversionRates, updated), nil
}

func (c *HTTPClient) latestURL(base string) string {
	return fmt.Sprintf("%s/%s/latest/%s", c.baseURL, url.PathEscape(c.apiKey), url.PathEscape(base))
}

func networkError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return entities.NewError(entities.KindNetwork, "The exchange rate request timed out.", err)
	}
	return entities.NewError(entities.KindNetwork, "Failed to fetch data from the API.", err)
}

func statusMessage(code int) string {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "Failed to fetch data from the API: the API key was rejected."
	case http.StatusNotFound:
		return "Failed to fetch data from the API: unknown currency."
	case http.StatusTooManyRequests:
		return "Failed to fetch data from the API: request quota reached."
	default:
		return "Failed to fetch data from the API."
	}
}
