// Package alert derives alarm and staleness state from evaluation results
// and drives the notification and actuator collaborators.
package alert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/slack-go/slack"

	"snowwatch/internal/config"
	"snowwatch/internal/logger"
)

// Notifier dispatches an alarm message, optionally with an image attached.
// Implementations must never let a delivery failure reach the pipeline.
type Notifier interface {
	Alert(settings config.Settings, message, imagePath string) error
}

// SlackNotifier sends alarms to Slack. With a bot token, a channel and an
// image it uploads the image as evidence; with only a webhook URL it posts
// plain text; with neither it does nothing.
type SlackNotifier struct {
	logger *logger.Logger
}

func NewSlackNotifier(logger *logger.Logger) *SlackNotifier {
	return &SlackNotifier{logger: logger}
}

func (n *SlackNotifier) Alert(settings config.Settings, message, imagePath string) error {
	if imagePath != "" && settings.SlackBotToken != "" && settings.SlackChannel != "" {
		err := n.uploadImage(settings, message, imagePath)
		if err == nil {
			return nil
		}
		// fall through to the webhook if one is configured
		n.logger.Error("Slack file upload failed: %v", err)
	}

	if settings.SlackWebhookURL == "" {
		return nil
	}
	if err := slack.PostWebhook(settings.SlackWebhookURL, &slack.WebhookMessage{Text: message}); err != nil {
		return fmt.Errorf("slack webhook failed: %w", err)
	}
	return nil
}

func (n *SlackNotifier) uploadImage(settings config.Settings, message, imagePath string) error {
	info, err := os.Stat(imagePath)
	if err != nil {
		return fmt.Errorf("attachment unreadable: %w", err)
	}

	client := slack.New(settings.SlackBotToken)
	_, err = client.UploadFileV2(slack.UploadFileV2Parameters{
		Channel:        settings.SlackChannel,
		File:           imagePath,
		FileSize:       int(info.Size()),
		Filename:       filepath.Base(imagePath),
		InitialComment: message,
	})
	return err
}
