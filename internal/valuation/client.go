package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client fetches per-country export values from the OEC tesseract API
// (no API key). Values are reported in billions USD.
type Client struct {
	baseURL    string
	year       int
	httpClient *http.Client
}

func NewClient(baseURL string, year int, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = "https://api-v2.oec.world/tesseract/data.jsonrecords"
	}
	if year == 0 {
		year = 2023
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 4 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		year:       year,
		httpClient: httpClient,
	}
}

type tesseractRecord struct {
	ExporterCountryID string  `json:"Exporter Country ID"`
	TradeValue        float64 `json:"Trade Value"`
}

type tesseractResponse struct {
	Data []tesseractRecord `json:"data"`
}

// ExportValues fetches the trade value of one product for every country in
// the reference pool. The response maps country id -> value in billions USD.
func (c *Client) ExportValues(ctx context.Context, productID string) (map[string]float64, error) {
	ids := make([]string, 0, len(Countries))
	for _, country := range Countries {
		ids = append(ids, country.ID)
	}

	// The tesseract include clause is not standard query-string syntax, so
	// the URL is assembled by hand rather than with url.Values.
	url := fmt.Sprintf(
		"%s?cube=trade_i_baci_a_22&locale=en&drilldowns=HS4,Exporter+Country,Year&measures=Trade+Value&include=HS4:%s;Exporter+Country:%s;Year:%d",
		c.baseURL, productID, strings.Join(ids, ","), c.year,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("oec non-200: %d", resp.StatusCode)
	}

	var payload tesseractResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("oec empty data for product %s", productID)
	}

	values := make(map[string]float64, len(payload.Data))
	for _, record := range payload.Data {
		if _, ok := CountryByID(record.ExporterCountryID); ok {
			values[record.ExporterCountryID] = record.TradeValue / 1_000_000_000
		}
	}
	return values, nil
}
