package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/newsletterhub/crosspromo/internal/config"
	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service delivers campaign digests via Teams and email
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message card
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// Enabled reports whether any delivery channel is configured
func (s *Service) Enabled() bool {
	return s.config.TeamsWebhookURL != "" || s.config.NotificationEmail != ""
}

// SendCampaignDigest sends the digest through every configured channel. A failing
// channel does not stop the others.
func (s *Service) SendCampaignDigest(ctx context.Context, digest *models.CampaignDigest) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(ctx, digest); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Sent campaign digest for user %s to Teams", digest.UserID)
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(digest); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Sent campaign digest for user %s via email", digest.UserID)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

func (s *Service) sendToTeams(ctx context.Context, digest *models.CampaignDigest) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(buildTeamsMessage(digest)).
		Post(s.config.TeamsWebhookURL)
	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

func buildTeamsMessage(digest *models.CampaignDigest) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Cross-Promotion Campaigns - %d new", len(digest.Campaigns)),
		Text:    fmt.Sprintf("Matching created %d campaigns for newsletter %s", len(digest.Campaigns), digest.SourceNewsletterID),
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts: []TeamsFact{
			{Name: "Publisher", Value: digest.UserID},
			{Name: "Estimated Reach", Value: fmt.Sprintf("%d", digest.TotalEstimatedReach)},
			{Name: "Estimated Revenue", Value: fmt.Sprintf("$%.2f", digest.TotalEstimatedRevenue)},
			{Name: "Generated", Value: digest.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
		},
		Markdown: true,
	})

	if len(digest.Campaigns) > 0 {
		lines := make([]string, 0, len(digest.Campaigns))
		for _, c := range digest.Campaigns {
			lines = append(lines, fmt.Sprintf("**%s** - %.0f%% compatible, reach %d (%s)",
				c.TargetNewsletterID, c.CompatibilityScore*100, c.EstimatedReach, c.Status))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Campaigns",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(digest *models.CampaignDigest) error {
	subject := fmt.Sprintf("Cross-Promotion Campaigns - %d new for %s", len(digest.Campaigns), digest.SourceNewsletterID)

	htmlBody, err := buildEmailHTML(digest)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", buildEmailText(digest))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Cross-Promotion Campaigns</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .campaign { border-left: 4px solid #0078d4; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .campaign-title { font-weight: bold; margin-bottom: 5px; }
        .campaign-meta { color: #666; font-size: 0.9em; }
        .active { border-left-color: #107c10; }
        .pending { border-left-color: #605e5c; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Cross-Promotion Campaigns</h1>
        <p>Generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}} for newsletter {{.SourceNewsletterID}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Campaigns:</strong> {{len .Campaigns}}</p>
        <p><strong>Estimated Reach:</strong> {{.TotalEstimatedReach}}</p>
        <p><strong>Estimated Revenue:</strong> {{money .TotalEstimatedRevenue}}</p>
    </div>

    {{range .Campaigns}}
    <div class="campaign {{.Status}}">
        <div class="campaign-title">{{.TargetNewsletterID}}</div>
        <div class="campaign-meta">
            {{percent .CompatibilityScore}} compatible | reach {{.EstimatedReach}} | {{money .EstimatedRevenue}} | {{.DurationDays}} days | {{.Status}}
        </div>
        {{if .MatchingReasons}}
        <ul>{{range .MatchingReasons}}<li>{{.}}</li>{{end}}</ul>
        {{end}}
    </div>
    {{end}}

    <hr>
    <p><small>This digest was generated automatically by the cross-promotion matcher.</small></p>
</body>
</html>
`

var emailTmpl = template.Must(template.New("email").Funcs(template.FuncMap{
	"money":   func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"percent": func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
}).Parse(emailTemplate))

func buildEmailHTML(digest *models.CampaignDigest) (string, error) {
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, digest); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildEmailText(digest *models.CampaignDigest) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Cross-Promotion Campaigns for %s\n", digest.SourceNewsletterID))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", digest.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Campaigns: %d\n", len(digest.Campaigns)))
	text.WriteString(fmt.Sprintf("Estimated Reach: %d\n", digest.TotalEstimatedReach))
	text.WriteString(fmt.Sprintf("Estimated Revenue: $%.2f\n", digest.TotalEstimatedRevenue))

	if len(digest.Campaigns) > 0 {
		text.WriteString("\nCAMPAIGNS\n")
		text.WriteString("=========\n")

		for i, c := range digest.Campaigns {
			text.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, c.TargetNewsletterID))
			text.WriteString(fmt.Sprintf("   Compatibility: %.0f%% | Reach: %d | Revenue: $%.2f | Status: %s\n",
				c.CompatibilityScore*100, c.EstimatedReach, c.EstimatedRevenue, c.Status))
			if len(c.MatchingReasons) > 0 {
				text.WriteString(fmt.Sprintf("   Reasons: %s\n", strings.Join(c.MatchingReasons, "; ")))
			}
		}
	}

	text.WriteString("\n---\nThis digest was generated automatically by the cross-promotion matcher.\n")

	return text.String()
}
