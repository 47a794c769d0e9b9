// Package notify implements the notification send routines shared by the
// scheduler ticks and the admin test commands.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"ramadan_diary_bot/internal/domain"
	"ramadan_diary_bot/internal/logging"
	"ramadan_diary_bot/internal/report"
)

// Sender delivers a message with the open-diary inline keyboard attached, the
// way every scheduled notification is sent.
type Sender interface {
	SendDiaryPrompt(ctx context.Context, chatID int64, text string) error
}

// UserSource lists notification recipients.
type UserSource interface {
	List(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
}

// DiarySource reads diary records for report composition.
type DiarySource interface {
	Get(ctx context.Context, userID int64) (domain.DiaryRecord, error)
}

// SettingsSource exposes the live settings snapshots the notifier needs.
type SettingsSource interface {
	Window() domain.RamadanWindow
	Notifications() domain.NotificationConfig
}

// Notifier fans scheduled notifications out to every registered user.
type Notifier struct {
	users    UserSource
	diaries  DiarySource
	settings SettingsSource
	sender   Sender
	logger   *logrus.Entry
	now      func() time.Time
}

// NewNotifier constructs a Notifier.
func NewNotifier(users UserSource, diaries DiarySource, settings SettingsSource, sender Sender, logger *logrus.Entry) *Notifier {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Notifier{
		users:    users,
		diaries:  diaries,
		settings: settings,
		sender:   sender,
		logger:   logger,
		now:      time.Now,
	}
}

// Morning sends the configured morning reminder to every user. Per-recipient
// failures are logged and counted without aborting the batch.
func (n *Notifier) Morning(ctx context.Context) error {
	if n == nil || n.users == nil || n.sender == nil {
		return errors.New("notifier is not initialized")
	}

	text := n.MorningText()

	users, err := n.users.List(ctx)
	if err != nil {
		return err
	}

	sent, failed := 0, 0
	for _, user := range users {
		if err := n.sender.SendDiaryPrompt(ctx, user.ChatID, text); err != nil {
			failed++
			n.logger.WithFields(logging.Fields{
				"event":   "morning_send_failed",
				"user_id": user.UserID,
			}).WithError(err).Warn("failed to send morning reminder")
			continue
		}
		sent++
	}

	n.logger.WithFields(logging.Fields{
		"event":  "morning_batch",
		"sent":   sent,
		"failed": failed,
	}).Info("morning reminders dispatched")

	return nil
}

// Evening sends the per-user evening report to every user.
func (n *Notifier) Evening(ctx context.Context) error {
	if n == nil || n.users == nil || n.sender == nil {
		return errors.New("notifier is not initialized")
	}

	users, err := n.users.List(ctx)
	if err != nil {
		return err
	}

	currentDay := report.CurrentDay(n.settings.Window(), n.now())

	sent, failed := 0, 0
	for _, user := range users {
		text := n.eveningTextFor(ctx, user.UserID, currentDay)
		if err := n.sender.SendDiaryPrompt(ctx, user.ChatID, text); err != nil {
			failed++
			n.logger.WithFields(logging.Fields{
				"event":   "evening_send_failed",
				"user_id": user.UserID,
			}).WithError(err).Warn("failed to send evening report")
			continue
		}
		sent++
	}

	n.logger.WithFields(logging.Fields{
		"event":  "evening_batch",
		"sent":   sent,
		"failed": failed,
	}).Info("evening reports dispatched")

	return nil
}

// DailyReport sends the streak/progress summary to every user.
func (n *Notifier) DailyReport(ctx context.Context) error {
	if n == nil || n.users == nil || n.sender == nil {
		return errors.New("notifier is not initialized")
	}

	users, err := n.users.List(ctx)
	if err != nil {
		return err
	}

	sent, failed := 0, 0
	for _, user := range users {
		text, err := n.ReportFor(ctx, user.UserID)
		if err != nil {
			failed++
			n.logger.WithFields(logging.Fields{
				"event":   "report_build_failed",
				"user_id": user.UserID,
			}).WithError(err).Warn("failed to build daily report")
			continue
		}
		if err := n.sender.SendDiaryPrompt(ctx, user.ChatID, text); err != nil {
			failed++
			n.logger.WithFields(logging.Fields{
				"event":   "report_send_failed",
				"user_id": user.UserID,
			}).WithError(err).Warn("failed to send daily report")
			continue
		}
		sent++
	}

	n.logger.WithFields(logging.Fields{
		"event":  "report_batch",
		"sent":   sent,
		"failed": failed,
	}).Info("daily reports dispatched")

	return nil
}

// MorningText returns the configured morning reminder text.
func (n *Notifier) MorningText() string {
	text := n.settings.Notifications().Morning.Message
	if text == "" {
		text = fallbackMorningMessage
	}
	return text
}

// EveningTextFor composes the evening report for one user.
func (n *Notifier) EveningTextFor(ctx context.Context, userID int64) string {
	currentDay := report.CurrentDay(n.settings.Window(), n.now())
	return n.eveningTextFor(ctx, userID, currentDay)
}

func (n *Notifier) eveningTextFor(ctx context.Context, userID int64, currentDay int) string {
	intro := n.settings.Notifications().Evening.Message
	if intro == "" {
		intro = fallbackEveningMessage
	}

	record, err := n.diaries.Get(ctx, userID)
	if err != nil {
		n.logger.WithFields(logging.Fields{
			"event":   "diary_read_failed",
			"user_id": userID,
		}).WithError(err).Warn("using empty diary for evening report")
		record = domain.DiaryRecord{UserID: userID, Days: map[int]domain.DiaryDay{}}
	}

	return EveningText(intro, record, currentDay)
}

// ReportFor composes the streak/progress summary for one user. Shared by the
// dailyReport slot, /streak, and /test_report.
func (n *Notifier) ReportFor(ctx context.Context, userID int64) (string, error) {
	if n == nil || n.diaries == nil {
		return "", errors.New("notifier is not initialized")
	}

	record, err := n.diaries.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	currentDay := report.CurrentDay(n.settings.Window(), n.now())
	return ReportText(record, currentDay), nil
}
