package notify

import (
	"context"
	"fmt"
	"strconv"

	"backersync/domain/entities"

	"github.com/slack-go/slack"
)

// SlackNotifier posts run summaries to a Slack incoming webhook
type SlackNotifier struct {
	webhookURL string
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL}
}

// NotifyRun posts a summary of report. runErr is the fatal error of an aborted run, if any.
func (n *SlackNotifier) NotifyRun(ctx context.Context, report *entities.SyncReport, runErr error) error {
	msg := BuildRunMessage(report, runErr)
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return fmt.Errorf("failed to post run summary to slack: %w", err)
	}
	return nil
}

// BuildRunMessage renders the webhook payload for a run
func BuildRunMessage(report *entities.SyncReport, runErr error) *slack.WebhookMessage {
	if report == nil {
		report = &entities.SyncReport{}
	}

	title := "Backer role sync completed"
	color := "good"
	if runErr != nil {
		title = "Backer role sync aborted"
		color = "danger"
	}

	fields := []slack.AttachmentField{
		{Title: "Organization", Value: report.OrgName, Short: true},
		{Title: "Eligible backers", Value: strconv.Itoa(report.Eligible), Short: true},
		{Title: "Granted", Value: strconv.Itoa(report.GrantedCount()), Short: true},
		{Title: "Skipped", Value: strconv.Itoa(report.SkippedCount()), Short: true},
	}
	if runErr != nil {
		fields = append(fields, slack.AttachmentField{Title: "Error", Value: runErr.Error()})
	}

	return &slack.WebhookMessage{
		Text: fmt.Sprintf("%s (run %s)", title, report.RunID),
		Attachments: []slack.Attachment{
			{
				Color:  color,
				Title:  title,
				Fields: fields,
			},
		},
	}
}
