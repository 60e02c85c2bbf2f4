package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/sawyershoemaker/chess.com-tracker/internal/models"
)

const (
	colorWin    = 65280    // #00FF00
	colorLoss   = 16711680 // #FF0000
	colorDraw   = 8421504  // #808080
	colorLeague = 3447003  // #3498DB
	colorAlert  = 16753920 // #FFA500
)

// Client posts embeds to a single Discord webhook. Webhooks allow about
// thirty requests a minute, hence the limiter.
type Client struct {
	webhookURL  string
	username    string
	client      *http.Client
	rateLimiter *rate.Limiter
}

func New(webhookURL, username string) *Client {
	return &Client{
		webhookURL:  webhookURL,
		username:    username,
		client:      &http.Client{Timeout: 10 * time.Second},
		rateLimiter: rate.NewLimiter(rate.Every(2*time.Second), 5),
	}
}

// SendGame announces one completed game.
func (c *Client) SendGame(ctx context.Context, game models.GameRecord) error {
	_, err := c.send(ctx, formatGameEmbed(c.username, game))
	return err
}

// SendLeague announces the current league standing and returns the
// message ID so a later standing can replace it.
func (c *Client) SendLeague(ctx context.Context, standing models.LeagueSnapshot, alert bool, reason string) (string, error) {
	return c.send(ctx, formatLeagueEmbed(c.username, standing, alert, reason))
}

// Delete removes a previously sent message. A message that is already
// gone counts as deleted.
func (c *Client) Delete(ctx context.Context, messageID string) error {
	if messageID == "" {
		return nil
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	parsedBaseURL, err := url.Parse(c.webhookURL)
	if err != nil {
		return err
	}
	deleteURL := fmt.Sprintf("%s://%s%s/messages/%s", parsedBaseURL.Scheme, parsedBaseURL.Host, parsedBaseURL.Path, messageID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, deleteURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("discord delete failed: %s, body: %s", resp.Status, string(bodyBytes))
}

// Internal structures
type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	URL         string              `json:"url,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordMessageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

func formatGameEmbed(username string, game models.GameRecord) discordEmbed {
	opponent := game.OpponentName
	if opponent == "" {
		opponent = "Unknown"
	}
	result := string(game.Result)
	if game.TerminationReason != "" {
		result = fmt.Sprintf("%s (%s)", result, game.TerminationReason)
	}

	fields := []discordEmbedField{
		{Name: "Opponent", Value: opponent, Inline: true},
		{Name: "Result", Value: result, Inline: true},
		{Name: "Time Control", Value: models.FormatTimeControl(game.TimeControl), Inline: true},
	}
	// An unknown delta is left out rather than shown as a guess.
	if game.RatingDelta != nil {
		fields = append(fields, discordEmbedField{
			Name:   "Rating Change",
			Value:  fmt.Sprintf("%+d", *game.RatingDelta),
			Inline: true,
		})
	}

	var isoTimestamp string
	if !game.EndTimestamp.IsZero() {
		isoTimestamp = game.EndTimestamp.Format(time.RFC3339)
	}

	return discordEmbed{
		Title:     fmt.Sprintf("%s played a game!", username),
		URL:       game.ID, // Hyperlink the title to the game
		Timestamp: isoTimestamp,
		Color:     gameColor(game.Result),
		Fields:    fields,
	}
}

func formatLeagueEmbed(username string, standing models.LeagueSnapshot, alert bool, reason string) discordEmbed {
	fields := []discordEmbedField{
		{Name: "Place", Value: fmt.Sprintf("#%d", standing.Place), Inline: true},
		{Name: "Points", Value: strconv.Itoa(standing.Points), Inline: true},
	}
	if !standing.PeriodEndsAt.IsZero() {
		// <t:...:R> renders client side as "in 16 hours".
		fields = append(fields, discordEmbedField{
			Name:   "Ends",
			Value:  fmt.Sprintf("<t:%d:R>", standing.PeriodEndsAt.Unix()),
			Inline: true,
		})
	}

	embed := discordEmbed{
		Title:       fmt.Sprintf("League standing for %s", username),
		Description: standing.LeagueName,
		Color:       colorLeague,
		Fields:      fields,
	}
	if alert {
		embed.Title = fmt.Sprintf("League alert for %s", username)
		embed.Color = colorAlert
		if reason != "" {
			embed.Description = reason
		}
	}
	return embed
}

func gameColor(result models.Result) int {
	switch result {
	case models.ResultWin:
		return colorWin
	case models.ResultLoss:
		return colorLoss
	default:
		return colorDraw
	}
}

func (c *Client) send(ctx context.Context, embed discordEmbed) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	payload := discordWebhookPayload{Embeds: []discordEmbed{embed}}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	parsedURL, err := url.Parse(c.webhookURL)
	if err != nil {
		return "", err
	}
	q := parsedURL.Query()
	q.Set("wait", "true")
	parsedURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, parsedURL.String(), bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var msgResponse discordMessageResponse
		if err := json.Unmarshal(bodyBytes, &msgResponse); err != nil {
			return "", err
		}
		return msgResponse.ID, nil
	}
	return "", fmt.Errorf("discord status: %s, body: %s", resp.Status, string(bodyBytes))
}
