// Package notify renders notification events as Discord webhook embeds and
// delivers them with bounded retry. A delivery failure never rolls back
// reconciliation state: the guarantee is at-most-once, not exactly-once.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"chess-tracker/internal/config"
	"chess-tracker/internal/constants"
	"chess-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

type Dispatcher struct {
	webhookURL string
	username   string
	avatarURL  string
	policy     RetryPolicy
	client     *fasthttp.Client
	logger     zerolog.Logger
}

func NewDispatcher(cfg *config.Config, logger zerolog.Logger) *Dispatcher {
	return newDispatcher(cfg.WebhookURL, cfg.ChessUsername, DefaultRetryPolicy(), logger)
}

func newDispatcher(webhookURL, username string, policy RetryPolicy, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		webhookURL: webhookURL,
		username:   username,
		policy:     policy,
		client: &fasthttp.Client{
			ReadTimeout:  constants.DispatchTimeout,
			WriteTimeout: constants.DispatchTimeout,
		},
		logger: logger,
	}
}

// SetAvatarURL sets the icon shown next to the author name. Empty is fine;
// the avatar is a per-run, best-effort decoration.
func (d *Dispatcher) SetAvatarURL(url string) {
	d.avatarURL = url
}

// Dispatch delivers one event. A missing webhook URL is a logged no-op, not
// an error.
func (d *Dispatcher) Dispatch(event domain.Event) error {
	if d.webhookURL == "" {
		d.logger.Info().Msg("webhook URL not configured, skipping notification")
		return nil
	}

	payload, err := json.Marshal(webhookPayload{Embeds: []embed{d.render(event)}})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	if err := d.sendWithRetry(payload); err != nil {
		return err
	}

	// brief pause between consecutive posts to stay under webhook rate limits
	d.policy.Sleep(constants.DispatchPacing)
	return nil
}

func (d *Dispatcher) sendWithRetry(payload []byte) error {
	var lastErr error

	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			d.policy.Sleep(d.policy.Backoff)
		}

		status, err := d.post(payload)
		if err != nil {
			lastErr = err
			d.logger.Warn().Err(err).Int("attempt", attempt).Msg("webhook request failed")
			continue
		}

		if status == fasthttp.StatusOK || status == fasthttp.StatusNoContent {
			d.logger.Debug().Int("attempt", attempt).Msg("webhook delivered")
			return nil
		}

		if d.policy.Retryable(status) {
			lastErr = fmt.Errorf("webhook throttled: %d", status)
			d.logger.Warn().Int("status", status).Int("attempt", attempt).Msg("webhook throttled, backing off")
			continue
		}

		return fmt.Errorf("webhook rejected: %d", status)
	}

	return fmt.Errorf("webhook delivery failed after %d attempts: %w", d.policy.MaxAttempts, lastErr)
}

func (d *Dispatcher) post(payload []byte) (int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(d.webhookURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	if err := d.client.Do(req, resp); err != nil {
		return 0, err
	}
	return resp.StatusCode(), nil
}

func (d *Dispatcher) render(event domain.Event) embed {
	switch e := event.(type) {
	case domain.GameReport:
		return d.renderGameReport(e)
	case domain.LeagueUpdate:
		return d.renderLeagueUpdate(e)
	case domain.LeagueDeadlineAlert:
		return d.renderDeadlineAlert(e)
	default:
		return embed{Title: "Unknown event", Color: constants.ColorDraw}
	}
}

func (d *Dispatcher) renderGameReport(report domain.GameReport) embed {
	game := report.Game

	color := constants.ColorDraw
	switch game.Result {
	case domain.ResultWin:
		color = constants.ColorWin
	case domain.ResultLoss:
		color = constants.ColorLoss
	}

	opponent := game.Opponent
	if game.OpponentRating != nil {
		opponent = fmt.Sprintf("%s (%d)", game.Opponent, *game.OpponentRating)
	} else {
		opponent = fmt.Sprintf("%s (unknown)", game.Opponent)
	}

	rating := "unknown"
	if game.PlayerRatingAfter != nil {
		rating = fmt.Sprintf("%d", *game.PlayerRatingAfter)
	}

	fields := []embedField{
		{Name: "Opponent", Value: opponent, Inline: true},
		{Name: "Result", Value: string(game.Result), Inline: true},
		{Name: "Time Control", Value: game.TimeControl, Inline: true},
		{Name: "Rating", Value: fmt.Sprintf("%s (%+d)", rating, report.RatingDelta), Inline: true},
		{Name: "Termination", Value: game.Termination, Inline: true},
	}

	if report.Standing != nil {
		fields = append(fields, embedField{
			Name:   "League",
			Value:  formatStanding(*report.Standing),
			Inline: true,
		})
	}

	e := embed{
		Title:  fmt.Sprintf("%s played a game!", d.username),
		URL:    game.GameURL,
		Color:  color,
		Fields: fields,
		Footer: &embedFooter{Text: string(game.Category)},
		Author: d.author(),
	}

	if game.PlayedAt != nil {
		e.Timestamp = game.PlayedAt.UTC().Format(time.RFC3339)
	}

	return e
}

func (d *Dispatcher) renderLeagueUpdate(update domain.LeagueUpdate) embed {
	return embed{
		Title: fmt.Sprintf("League standing for %s", d.username),
		Color: constants.ColorDraw,
		Fields: []embedField{
			{Name: "League", Value: update.Standing.LeagueName, Inline: true},
			{Name: "Rank", Value: update.Standing.Rank, Inline: true},
			{Name: "Points", Value: fmt.Sprintf("%d", update.Standing.Points), Inline: true},
		},
		Footer: &embedFooter{Text: fmt.Sprintf("%d new game(s) this run", update.NewGames)},
		Author: d.author(),
	}
}

func (d *Dispatcher) renderDeadlineAlert(alert domain.LeagueDeadlineAlert) embed {
	return embed{
		Title:       "League deadline imminent!",
		Description: fmt.Sprintf("The %s division closes in %s.", alert.Standing.LeagueName, formatRemaining(alert.Remaining)),
		Color:       constants.ColorWarn,
		Fields: []embedField{
			{Name: "League", Value: formatStanding(alert.Standing), Inline: true},
			{Name: "Points Needed", Value: fmt.Sprintf("%d", alert.PointsNeeded), Inline: true},
		},
		Author: d.author(),
	}
}

func (d *Dispatcher) author() *embedAuthor {
	author := &embedAuthor{Name: d.username}
	if d.avatarURL != "" {
		author.IconURL = d.avatarURL
	}
	return author
}

func formatStanding(standing domain.StandingSnapshot) string {
	return fmt.Sprintf("%s · rank %s · %d pts", standing.LeagueName, standing.Rank, standing.Points)
}

func formatRemaining(remaining time.Duration) string {
	remaining = remaining.Truncate(time.Minute)
	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title,omitempty"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
	Author      *embedAuthor `json:"author,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embedAuthor struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url,omitempty"`
}
