// Package osuapi is a client for the osu! v1 API.
package osuapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

// ErrNotFound is returned when the API answers with an empty result for a
// single-record lookup (unknown or restricted account, unknown beatmap).
var ErrNotFound = errors.New("osu api: not found")

var upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "osuchan_upstream_requests_total",
	Help: "Requests made to the osu! API by endpoint and status",
}, []string{"endpoint", "status"})

type Client struct {
	BaseURL string
	Key     string
	Client  *http.Client
	logger  *zap.SugaredLogger
}

func NewClient(baseURL, key string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Key:     key,
		Client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Sugar(),
	}
}

// GetUser looks up a profile by id or, when lookup has no id, by username.
func (c *Client) GetUser(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserData, error) {
	params := url.Values{"m": {strconv.Itoa(int(mode))}}
	if lookup.UserID > 0 {
		params.Set("u", strconv.FormatInt(lookup.UserID, 10))
		params.Set("type", "id")
	} else {
		params.Set("u", lookup.Username)
		params.Set("type", "string")
	}

	var out []models.UserData
	if err := c.get(ctx, "get_user", params, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("user %s: %w", lookup.Key(), ErrNotFound)
	}
	return &out[0], nil
}

func (c *Client) GetUserBest(ctx context.Context, userID int64, mode osu.Gamemode, limit int) ([]models.ScoreData, error) {
	return c.userScores(ctx, "get_user_best", userID, mode, limit)
}

func (c *Client) GetUserRecent(ctx context.Context, userID int64, mode osu.Gamemode, limit int) ([]models.ScoreData, error) {
	return c.userScores(ctx, "get_user_recent", userID, mode, limit)
}

// GetScores returns the user's scores on a beatmap. The API omits the beatmap
// id from these records, so it is filled in here.
func (c *Client) GetScores(ctx context.Context, beatmapID, userID int64, mode osu.Gamemode) ([]models.ScoreData, error) {
	params := url.Values{
		"b":    {strconv.FormatInt(beatmapID, 10)},
		"u":    {strconv.FormatInt(userID, 10)},
		"type": {"id"},
		"m":    {strconv.Itoa(int(mode))},
	}

	var out []models.ScoreData
	if err := c.get(ctx, "get_scores", params, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].BeatmapID = beatmapID
	}
	return out, nil
}

func (c *Client) GetBeatmap(ctx context.Context, beatmapID int64) (*models.BeatmapData, error) {
	params := url.Values{"b": {strconv.FormatInt(beatmapID, 10)}}

	var out []models.BeatmapData
	if err := c.get(ctx, "get_beatmaps", params, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("beatmap %d: %w", beatmapID, ErrNotFound)
	}
	return &out[0], nil
}

func (c *Client) userScores(ctx context.Context, endpoint string, userID int64, mode osu.Gamemode, limit int) ([]models.ScoreData, error) {
	params := url.Values{
		"u":     {strconv.FormatInt(userID, 10)},
		"type":  {"id"},
		"m":     {strconv.Itoa(int(mode))},
		"limit": {strconv.Itoa(limit)},
	}

	var out []models.ScoreData
	if err := c.get(ctx, endpoint, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	params.Set("k", c.Key)
	reqURL := fmt.Sprintf("%s/%s?%s", c.BaseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		upstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("osu api %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		upstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("osu api %s: read body: %w", endpoint, err)
	}
	upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warnw("osu api request failed",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"duration", time.Since(start),
		)
		return fmt.Errorf("osu api %s returned %d", endpoint, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("osu api %s: decode: %w", endpoint, err)
	}
	return nil
}
