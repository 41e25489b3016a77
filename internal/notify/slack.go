// Package notify posts failure alerts for generated runs to Slack.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"predictive-sim/internal/telemetry"
)

// DefaultCooldown is the minimum gap between two alerts for one machine.
const DefaultCooldown = 5 * time.Minute

// SlackNotifier sends an incoming-webhook alert for every run with failures.
type SlackNotifier struct {
	webhookURL string
	channel    string
	cooldown   time.Duration
	httpClient *http.Client
	now        func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// SlackMessage represents a Slack message
type SlackMessage struct {
	Channel     string       `json:"channel,omitempty"`
	Text        string       `json:"text,omitempty"`
	Username    string       `json:"username,omitempty"`
	IconEmoji   string       `json:"icon_emoji,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a Slack message attachment
type Attachment struct {
	Fallback  string  `json:"fallback,omitempty"`
	Color     string  `json:"color,omitempty"`
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Footer    string  `json:"footer,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
}

// Field represents a field in a Slack attachment
type Field struct {
	Title string `json:"title,omitempty"`
	Value string `json:"value,omitempty"`
	Short bool   `json:"short,omitempty"`
}

// Option customises a SlackNotifier.
type Option func(*SlackNotifier)

// WithCooldown sets the per-machine alert cooldown. Zero disables it.
func WithCooldown(d time.Duration) Option {
	return func(s *SlackNotifier) { s.cooldown = d }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *SlackNotifier) { s.httpClient = c }
}

// WithClock sets the time source used for the cooldown.
func WithClock(now func() time.Time) Option {
	return func(s *SlackNotifier) { s.now = now }
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(webhookURL, channel string, opts ...Option) (*SlackNotifier, error) {
	if webhookURL == "" {
		return nil, errors.New("slack webhook URL cannot be empty")
	}
	s := &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		cooldown:   DefaultCooldown,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
		last:       make(map[string]time.Time),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// WriteSummary alerts when the run produced failures and the machine is not
// within its cooldown window.
func (s *SlackNotifier) WriteSummary(row telemetry.RunSummaryRow) error {
	if row.Summary.Failures == 0 {
		return nil
	}
	now := s.now()
	s.mu.Lock()
	if last, ok := s.last[row.MachineID]; ok && s.cooldown > 0 && now.Sub(last) < s.cooldown {
		s.mu.Unlock()
		return nil
	}
	s.last[row.MachineID] = now
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.httpClient.Timeout+time.Second)
	defer cancel()
	if err := s.SendFailureAlert(ctx, row); err != nil {
		// allow a retry on the next run
		s.mu.Lock()
		delete(s.last, row.MachineID)
		s.mu.Unlock()
		return err
	}
	return nil
}

// SendFailureAlert posts a detailed failure alert for row.
func (s *SlackNotifier) SendFailureAlert(ctx context.Context, row telemetry.RunSummaryRow) error {
	sum := row.Summary
	temp := sum.Channel(telemetry.ColTemperature)
	vib := sum.Channel(telemetry.ColVibration)
	load := sum.Channel(telemetry.ColLoad)

	color := "#FFA500"
	if sum.FailureRate >= 0.1 {
		color = "#FF0000"
	}
	attachment := Attachment{
		Fallback:  fmt.Sprintf("%d failures on %s", sum.Failures, row.MachineID),
		Color:     color,
		Title:     "Machine failure risk detected",
		Text:      fmt.Sprintf("*%d* of *%d* samples labelled as failures (%.1f%%) by policy *%s*", sum.Failures, sum.Samples, sum.FailureRate*100, row.Policy),
		Timestamp: row.Timestamp.Unix(),
		Fields: []Field{
			{Title: "Machine", Value: row.MachineID, Short: true},
			{Title: "Run", Value: row.RunID, Short: true},
			{Title: "Max temperature", Value: fmt.Sprintf("%.2f°C (threshold %.2f)", temp.Max, row.Thresholds.Temperature), Short: true},
			{Title: "Max vibration", Value: fmt.Sprintf("%.2f (threshold %.2f)", vib.Max, row.Thresholds.Vibration), Short: true},
			{Title: "Max load", Value: fmt.Sprintf("%.2f%% (threshold %.2f)", load.Max, row.Thresholds.Load), Short: true},
			{Title: "Time", Value: row.Timestamp.Format(time.RFC1123), Short: false},
		},
		Footer: "Predictive Maintenance Simulator",
	}
	return s.sendMessage(ctx, SlackMessage{
		Channel:     s.channel,
		Username:    "Predictive Maintenance",
		IconEmoji:   ":warning:",
		Attachments: []Attachment{attachment},
	})
}

// SendNotification sends a simple text notification to Slack
func (s *SlackNotifier) SendNotification(ctx context.Context, message string) error {
	return s.sendMessage(ctx, SlackMessage{
		Channel:   s.channel,
		Text:      message,
		Username:  "Predictive Maintenance",
		IconEmoji: ":gear:",
	})
}

func (s *SlackNotifier) sendMessage(ctx context.Context, message SlackMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send slack request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected slack response status: %s", resp.Status)
	}
	return nil
}
