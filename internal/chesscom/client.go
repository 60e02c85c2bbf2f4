package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sawyershoemaker/chess.com-tracker/internal/models"
)

const (
	defaultBaseURL       = "https://api.chess.com"
	defaultLeagueBaseURL = "https://www.chess.com"
)

// DefaultUserAgent is sent with every request. The public API answers
// 403 to default Go user agents, so we present a browser one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

// errGone marks a 404/410 answer. The published API serves 410 Gone for
// players without data; callers treat it as "nothing there", not a failure.
var errGone = errors.New("resource gone")

// ClientConfig carries optional overrides for NewClient. The zero value
// yields a production client against the public endpoints.
type ClientConfig struct {
	BaseURL       string
	LeagueBaseURL string
	UserAgent     string
	HTTPClient    *http.Client
	Limiter       *rate.Limiter
}

// Client reads the published chess.com API. It is read-only and
// unauthenticated.
type Client struct {
	baseURL       string
	leagueBaseURL string
	userAgent     string
	httpClient    *http.Client
	limiter       *rate.Limiter
}

func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		leagueBaseURL: strings.TrimSuffix(cfg.LeagueBaseURL, "/"),
		userAgent:     cfg.UserAgent,
		httpClient:    cfg.HTTPClient,
		limiter:       cfg.Limiter,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.leagueBaseURL == "" {
		c.leagueBaseURL = defaultLeagueBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Every(time.Second), 2)
	}
	return c
}

// FetchRecentGames returns the completed games in the player's most
// recent monthly archive, oldest first, as the API serves them. A player
// with no archives, or a 404/410 answer, yields an empty slice and no
// error. Individual games that cannot be mapped are skipped with a warning.
func (c *Client) FetchRecentGames(ctx context.Context, username string) ([]models.GameRecord, error) {
	archivesURL := fmt.Sprintf("%s/pub/player/%s/games/archives", c.baseURL, url.PathEscape(strings.ToLower(username)))

	var index archivesIndex
	if err := c.getJSON(ctx, archivesURL, &index); err != nil {
		if errors.Is(err, errGone) {
			slog.Debug("no game archives for player", "username", username)
			return nil, nil
		}
		return nil, fmt.Errorf("fetching archive index: %w", err)
	}
	if len(index.Archives) == 0 {
		return nil, nil
	}

	latest := index.Archives[len(index.Archives)-1]
	var month archiveGames
	if err := c.getJSON(ctx, latest, &month); err != nil {
		if errors.Is(err, errGone) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching archive %s: %w", latest, err)
	}

	games := make([]models.GameRecord, 0, len(month.Games))
	for _, g := range month.Games {
		record, err := g.toRecord(username)
		if err != nil {
			slog.Warn("skipping unmappable game", "error", err)
			continue
		}
		games = append(games, record)
	}
	return games, nil
}

// FetchLeagueStanding returns the player's standing in their current
// league division, or nil when the player is not enrolled in one.
func (c *Client) FetchLeagueStanding(ctx context.Context, username string) (*models.LeagueSnapshot, error) {
	leagueURL := fmt.Sprintf("%s/callback/leagues/user-league/search/%s", c.leagueBaseURL, url.PathEscape(strings.ToLower(username)))

	var standing leagueStanding
	if err := c.getJSON(ctx, leagueURL, &standing); err != nil {
		if errors.Is(err, errGone) {
			slog.Debug("no league standing for player", "username", username)
			return nil, nil
		}
		return nil, fmt.Errorf("fetching league standing: %w", err)
	}
	if standing.Division.ID == "" {
		return nil, nil
	}

	return &models.LeagueSnapshot{
		LeagueName:           standing.League.Name,
		Place:                standing.Stats.Place,
		Points:               standing.Stats.Points,
		DivisionCode:         standing.Division.ID,
		AdvancementThreshold: standing.Division.AdvanceCount,
		PeriodEndsAt:         time.Unix(standing.Division.EndTime, 0).UTC(),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone:
		return errGone
	case res.StatusCode != http.StatusOK:
		return fmt.Errorf("failed to fetch %s: status code %d", rawURL, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", models.ErrBadPayload, rawURL, err)
	}
	return nil
}
