package telegram

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"ramadan_diary_bot/internal/domain"
	"ramadan_diary_bot/internal/logging"
)

// handleUpdate is the single entry point for inbound updates. Dispatch order:
// slash commands, static menu buttons, dynamically configured buttons, admin
// reply relay, free-text feedback. Anything else falls through silently.
func (c *Client) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}

	msg := update.Message
	if msg.From == nil {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	c.logger.WithFields(logging.Fields{
		"event":   "telegram_update",
		"user_id": msg.From.ID,
		"chat_id": msg.Chat.ID,
		"text":    text,
	}).Info("telegram update received")

	if strings.HasPrefix(text, "/") {
		c.handleCommand(ctx, msg, commandName(text))
		return
	}

	if c.handleButton(ctx, msg, text) {
		return
	}

	if c.handleAdminReply(ctx, msg, text) {
		return
	}

	c.handleFeedback(ctx, msg, text)
}

// commandName extracts the bare command from "/cmd@BotName args".
func commandName(text string) string {
	command := strings.Fields(text)[0]
	command = strings.TrimPrefix(command, "/")
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}

	return command
}

func (c *Client) handleCommand(ctx context.Context, msg *models.Message, command string) {
	switch command {
	case "start":
		c.handleStart(ctx, msg)
	case "menu":
		c.handleMenu(ctx, msg)
	case "status":
		c.handleStatus(ctx, msg)
	case "streak":
		c.handleStreak(ctx, msg)
	case "hadis":
		c.handleHadis(ctx, msg)
	case "test_morning":
		c.handleTestMorning(ctx, msg)
	case "test_evening":
		c.handleTestEvening(ctx, msg)
	case "test_report":
		c.handleTestReport(ctx, msg)
	}
}

func (c *Client) handleStart(ctx context.Context, msg *models.Message) {
	if c.users != nil {
		user := domain.User{
			UserID:    msg.From.ID,
			FirstName: msg.From.FirstName,
			Username:  msg.From.Username,
			ChatID:    msg.Chat.ID,
			JoinedAt:  c.now(),
		}

		if err := c.users.Upsert(ctx, user); err != nil {
			c.logger.WithFields(logging.Fields{
				"event":   "start_failed",
				"user_id": msg.From.ID,
			}).WithError(err).Error("failed to register user")
			c.reply(ctx, msg.Chat.ID, textGenericError)
			return
		}
	}

	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        textBismillah,
		ReplyMarkup: menuReplyKeyboard(c.webAppURL),
	})
	if err != nil {
		c.logger.WithField("event", "start_reply_failed").WithError(err).Warn("failed to send menu keyboard")
		return
	}

	if err := c.SendDiaryPrompt(ctx, msg.Chat.ID, welcomeText(msg.From.FirstName)); err != nil {
		c.logger.WithField("event", "start_reply_failed").WithError(err).Warn("failed to send welcome message")
	}
}

func (c *Client) handleMenu(ctx context.Context, msg *models.Message) {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        textMenu,
		ReplyMarkup: menuReplyKeyboard(c.webAppURL),
	})
	if err != nil {
		c.logger.WithField("event", "menu_reply_failed").WithError(err).Warn("failed to send menu")
	}
}

func (c *Client) handleStatus(ctx context.Context, msg *models.Message) {
	text := textStatusOK
	if msg.From.ID == c.adminID && c.stats != nil {
		users, err := c.stats.CountUsers(ctx)
		if err == nil {
			pending, pendingErr := c.stats.CountPendingBroadcasts(ctx)
			if pendingErr == nil {
				text = statusStatsText(users, pending)
			} else {
				err = pendingErr
			}
		}
		if err != nil {
			c.logger.WithField("event", "status_stats_failed").WithError(err).Warn("failed to load status counters")
		}
	}

	if err := c.SendDiaryPrompt(ctx, msg.Chat.ID, text); err != nil {
		c.logger.WithField("event", "status_reply_failed").WithError(err).Warn("failed to send status")
	}
}

func (c *Client) handleStreak(ctx context.Context, msg *models.Message) {
	if c.reporter == nil {
		return
	}

	text, err := c.reporter.ReportFor(ctx, msg.From.ID)
	if err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "streak_failed",
			"user_id": msg.From.ID,
		}).WithError(err).Error("failed to build streak report")
		c.reply(ctx, msg.Chat.ID, textGenericError)
		return
	}

	if err := c.SendDiaryPrompt(ctx, msg.Chat.ID, text); err != nil {
		c.logger.WithField("event", "streak_reply_failed").WithError(err).Warn("failed to send streak report")
	}
}

func (c *Client) handleHadis(ctx context.Context, msg *models.Message) {
	if c.settings == nil {
		c.reply(ctx, msg.Chat.ID, textNoContentToday)
		return
	}

	text, ok := c.settings.ContentForDay(c.currentDay())
	if !ok {
		c.reply(ctx, msg.Chat.ID, textNoContentToday)
		return
	}

	if err := c.sendMarkdown(ctx, msg.Chat.ID, text); err != nil {
		c.logger.WithField("event", "hadis_reply_failed").WithError(err).Warn("failed to send daily content")
	}
}

func (c *Client) handleTestMorning(ctx context.Context, msg *models.Message) {
	if msg.From.ID != c.adminID || c.reporter == nil {
		return
	}

	c.reply(ctx, msg.Chat.ID, textTestMorningStarted)
	c.sendTestPreview(ctx, msg, "TEST: "+c.reporter.MorningText())
}

func (c *Client) handleTestEvening(ctx context.Context, msg *models.Message) {
	if msg.From.ID != c.adminID || c.reporter == nil {
		return
	}

	c.reply(ctx, msg.Chat.ID, textTestEveningStarted)
	c.sendTestPreview(ctx, msg, "TEST: "+c.reporter.EveningTextFor(ctx, msg.From.ID))
}

func (c *Client) handleTestReport(ctx context.Context, msg *models.Message) {
	if msg.From.ID != c.adminID || c.reporter == nil {
		return
	}

	text, err := c.reporter.ReportFor(ctx, msg.From.ID)
	if err != nil {
		c.logger.WithField("event", "test_report_failed").WithError(err).Error("failed to build test report")
		c.reply(ctx, msg.Chat.ID, textGenericError)
		return
	}

	c.reply(ctx, msg.Chat.ID, textTestReportStarted)
	c.sendTestPreview(ctx, msg, "TEST: "+text)
}

// sendTestPreview delivers a test notification to the admin's registered chat
// id, exactly as a scheduled send would.
func (c *Client) sendTestPreview(ctx context.Context, msg *models.Message, text string) {
	chatID := msg.Chat.ID
	if c.users != nil {
		user, err := c.users.GetByID(ctx, msg.From.ID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				c.logger.WithField("event", "test_lookup_failed").WithError(err).Warn("failed to look up admin user")
			}
		} else {
			chatID = user.ChatID
		}
	}

	if err := c.SendDiaryPrompt(ctx, chatID, text); err != nil {
		c.logger.WithField("event", "test_send_failed").WithError(err).Warn("failed to send test notification")
	}
}

// handleButton answers static menu buttons and dynamically configured ones.
func (c *Client) handleButton(ctx context.Context, msg *models.Message, text string) bool {
	switch text {
	case ButtonOpenDiary:
		if err := c.SendDiaryPrompt(ctx, msg.Chat.ID, textOpenDiary); err != nil {
			c.logger.WithField("event", "button_reply_failed").WithError(err).Warn("failed to send diary link")
		}
		return true
	case ButtonMorningDua:
		c.replyMarkdown(ctx, msg.Chat.ID, textMorningDua)
		return true
	case ButtonEveningDua:
		c.replyMarkdown(ctx, msg.Chat.ID, textEveningDua)
		return true
	case ButtonFeedback:
		c.reply(ctx, msg.Chat.ID, textFeedbackPrompt)
		return true
	case ButtonAbout:
		c.replyMarkdown(ctx, msg.Chat.ID, textAbout)
		return true
	}

	if c.settings != nil {
		for _, button := range c.settings.Buttons().Buttons {
			if button.Label == text {
				c.replyMarkdown(ctx, msg.Chat.ID, button.Reply)
				return true
			}
		}
	}

	return false
}

// handleAdminReply relays an admin reply on a forwarded feedback message back
// to the original sender. Returns false when the message is not such a reply,
// letting it fall through.
func (c *Client) handleAdminReply(ctx context.Context, msg *models.Message, text string) bool {
	if msg.From.ID != c.adminID || msg.ReplyToMessage == nil || c.feedback == nil {
		return false
	}

	mapping, err := c.feedback.Get(ctx, msg.ReplyToMessage.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.WithField("event", "feedback_lookup_failed").WithError(err).Error("failed to resolve feedback mapping")
		}
		return false
	}

	if err := c.sendMarkdown(ctx, mapping.ChatID, adminReplyPrefix+text); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "admin_reply_failed",
			"user_id": mapping.UserID,
		}).WithError(err).Error("failed to relay admin reply")
		c.reply(ctx, msg.Chat.ID, textAdminReplyFailed)
		return true
	}

	c.reply(ctx, msg.Chat.ID, textAdminReplyDelivered)
	return true
}

// handleFeedback forwards a non-admin free-text message to the admin and
// records the mapping for later replies.
func (c *Client) handleFeedback(ctx context.Context, msg *models.Message, text string) {
	if msg.From.ID == c.adminID || c.feedback == nil {
		return
	}

	forwarded, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    c.adminID,
		Text:      feedbackForwardText(msg.From, text),
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "feedback_forward_failed",
			"user_id": msg.From.ID,
		}).WithError(err).Error("failed to forward feedback to admin")
		return
	}

	mapping := domain.FeedbackMapping{
		MessageID: forwarded.ID,
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		Timestamp: c.now(),
	}
	if err := c.feedback.Put(ctx, mapping); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "feedback_store_failed",
			"user_id": msg.From.ID,
		}).WithError(err).Error("failed to store feedback mapping")
	}

	c.reply(ctx, msg.Chat.ID, textFeedbackConfirm)
}

func (c *Client) reply(ctx context.Context, chatID int64, text string) {
	if err := c.sendPlain(ctx, chatID, text); err != nil {
		c.logger.WithField("event", "reply_failed").WithError(err).Warn("failed to send reply")
	}
}

func (c *Client) replyMarkdown(ctx context.Context, chatID int64, text string) {
	if err := c.sendMarkdown(ctx, chatID, text); err != nil {
		c.logger.WithField("event", "reply_failed").WithError(err).Warn("failed to send reply")
	}
}
