package sumdu

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/xdoubleu/essentia/v2/pkg/communication/httptools"
)

const BaseURL = "https://schedule.sumdu.edu.ua/index/json"

const DateFormat = "02.01.2006"

type client struct {
	logger     *slog.Logger
	baseURL    string
	httpClient *http.Client
}

func New(logger *slog.Logger, baseURL string, timeout time.Duration) Client {
	if baseURL == "" {
		baseURL = BaseURL
	}

	return client{
		logger:  logger,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (client client) GetSchedule(
	ctx context.Context,
	groupCode int,
	from time.Time,
	to time.Time,
) ([]Record, error) {
	query := url.Values{}
	query.Set("method", "getSchedules")
	query.Set("id_grp", strconv.Itoa(groupCode))
	query.Set("date_beg", from.Format(DateFormat))
	query.Set("date_end", to.Format(DateFormat))

	var records []Record
	err := client.sendRequest(ctx, query.Encode(), &records)
	if err != nil {
		return nil, err
	}

	client.logger.Debug(
		fmt.Sprintf("fetched %d records for group %d", len(records), groupCode),
	)

	return records, nil
}

func (client client) sendRequest(
	ctx context.Context,
	query string,
	dst any,
) error {
	u, err := url.Parse(client.baseURL)
	if err != nil {
		return err
	}

	u.RawQuery = query

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")

	res, err := client.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status from schedule: %d", res.StatusCode)
	}

	err = httptools.ReadJSON(res.Body, dst)
	if err != nil {
		return fmt.Errorf("decoding schedule: %w", err)
	}

	return nil
}
