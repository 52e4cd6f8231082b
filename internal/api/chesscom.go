package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chess-tracker/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const (
	pubBaseURL      = "https://api.chess.com/pub"
	leagueSearchURL = "https://www.chess.com/service/leagues/user-league/search"

	// The public API rejects requests without a browser-like User-Agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"
)

// ErrNotFound covers 404 and 410 responses. Callers treat it as a normal
// "nothing available" outcome, not a failure.
var ErrNotFound = errors.New("resource not available")

type ChessComClient struct {
	client *fasthttp.Client
	logger zerolog.Logger
}

func NewChessComClient(logger zerolog.Logger) *ChessComClient {
	return &ChessComClient{
		client: &fasthttp.Client{
			MaxConnsPerHost:     10,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

// GetLatestArchiveGames returns the games of the most recent archive page in
// the order the API provides them, assumed chronological oldest first. An
// empty archive index or a gone archive yields (nil, nil).
func (c *ChessComClient) GetLatestArchiveGames(ctx context.Context, username string) ([]ArchiveGame, error) {
	archivesURL := fmt.Sprintf("%s/player/%s/games/archives", pubBaseURL, username)
	index, err := doRequest[ArchivesResponse](ctx, c, archivesURL)
	if errors.Is(err, ErrNotFound) {
		c.logger.Info().Str("username", username).Msg("no archives published for player")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch archive index: %w", err)
	}
	if len(index.Archives) == 0 {
		c.logger.Info().Str("username", username).Msg("archive index is empty")
		return nil, nil
	}

	latest := index.Archives[len(index.Archives)-1]
	page, err := doRequest[ArchiveResponse](ctx, c, latest)
	if errors.Is(err, ErrNotFound) {
		c.logger.Info().Str("archive", latest).Msg("latest archive page is gone")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch archive page: %w", err)
	}

	c.logger.Debug().Str("archive", latest).Int("game_count", len(page.Games)).Msg("archive page fetched")
	return page.Games, nil
}

// GetLeagueStanding returns the player's current division standing, or
// (nil, nil) when the player is not enrolled in a league.
func (c *ChessComClient) GetLeagueStanding(ctx context.Context, username string) (*LeagueSearchResponse, error) {
	url := fmt.Sprintf("%s/%s", leagueSearchURL, username)
	standing, err := doRequest[LeagueSearchResponse](ctx, c, url)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch league standing: %w", err)
	}
	return standing, nil
}

// GetProfile returns the player's public profile, used for the embed avatar.
func (c *ChessComClient) GetProfile(ctx context.Context, username string) (*ProfileResponse, error) {
	url := fmt.Sprintf("%s/player/%s", pubBaseURL, username)
	profile, err := doRequest[ProfileResponse](ctx, c, url)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	return profile, nil
}

func doRequest[T any](ctx context.Context, client *ChessComClient, url string) (*T, error) {
	var lastErr error

	for attempt := 1; attempt <= constants.FetchMaxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(constants.FetchBackoff)
		}

		status, body, err := client.do(ctx, url)
		if err != nil {
			lastErr = err
			client.logger.Warn().Err(err).Str("url", url).Int("attempt", attempt).Msg("request failed")
			continue
		}

		switch {
		case status == fasthttp.StatusOK:
			var result T
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("decode response from %s: %w", url, err)
			}
			return &result, nil
		case status == fasthttp.StatusNotFound || status == fasthttp.StatusGone:
			return nil, ErrNotFound
		case status == fasthttp.StatusTooManyRequests || status >= 500:
			lastErr = fmt.Errorf("API error: %d", status)
			client.logger.Warn().Str("url", url).Int("status", status).Int("attempt", attempt).Msg("retryable API error")
		default:
			return nil, fmt.Errorf("API error: %d", status)
		}
	}

	return nil, fmt.Errorf("request to %s failed after %d attempts: %w", url, constants.FetchMaxAttempts, lastErr)
}

func (c *ChessComClient) do(ctx context.Context, url string) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("User-Agent", userAgent)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return 0, nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return 0, nil, err
		}
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return resp.StatusCode(), body, nil
}

type ArchivesResponse struct {
	Archives []string `json:"archives"`
}

type ArchiveResponse struct {
	Games []ArchiveGame `json:"games"`
}

type ArchiveGame struct {
	URL         string        `json:"url"`
	PGN         string        `json:"pgn"`
	TimeControl string        `json:"time_control"`
	TimeClass   string        `json:"time_class"`
	EndTime     int64         `json:"end_time"`
	Rated       bool          `json:"rated"`
	White       ArchivePlayer `json:"white"`
	Black       ArchivePlayer `json:"black"`
}

type ArchivePlayer struct {
	Username     string `json:"username"`
	Rating       *int   `json:"rating"`
	Result       string `json:"result"`
	RatingChange *int   `json:"rating_change"`
}

type LeagueSearchResponse struct {
	Division struct {
		EndTime *int64 `json:"endTime"`
		League  struct {
			Name string `json:"name"`
			Code string `json:"code"`
		} `json:"league"`
	} `json:"division"`
	Stats struct {
		Ranking     FlexString `json:"ranking"`
		TrophyCount int        `json:"trophyCount"`
	} `json:"stats"`
}

type ProfileResponse struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// FlexString accepts a JSON string or number. The league endpoint reports
// ranking as a number for placed players and "N/A" otherwise.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

