// Package telegram hosts the Telegram client, routing, and handlers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"ramadan_diary_bot/internal/config"
	"ramadan_diary_bot/internal/domain"
	"ramadan_diary_bot/internal/logging"
	"ramadan_diary_bot/internal/report"
)

type botAPI interface {
	Start(ctx context.Context)
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SetMyCommands(ctx context.Context, params *bot.SetMyCommandsParams) (bool, error)
}

var (
	defaultAllowedUpdates = bot.AllowedUpdates{
		"message",
		"edited_message",
	}

	createBot = func(token string, options ...bot.Option) (botAPI, error) {
		return bot.New(token, options...)
	}
)

// UserDirectory covers the user reads and writes the router performs.
type UserDirectory interface {
	Upsert(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, userID int64) (domain.User, error)
}

// FeedbackStore persists and resolves feedback-forward mappings.
type FeedbackStore interface {
	Put(ctx context.Context, mapping domain.FeedbackMapping) error
	Get(ctx context.Context, messageID int) (domain.FeedbackMapping, error)
}

// SettingsSource exposes the live configuration snapshots handlers read.
type SettingsSource interface {
	Window() domain.RamadanWindow
	Buttons() domain.ButtonsConfig
	ContentForDay(day int) (string, bool)
}

// Reporter builds the notification and report texts shared with the
// scheduler; the admin test commands reuse it verbatim.
type Reporter interface {
	MorningText() string
	EveningTextFor(ctx context.Context, userID int64) string
	ReportFor(ctx context.Context, userID int64) (string, error)
}

// StatsProvider supplies the counters shown to the admin on /status.
type StatsProvider interface {
	CountUsers(ctx context.Context) (int64, error)
	CountPendingBroadcasts(ctx context.Context) (int64, error)
}

// Client wraps the Telegram bot instance and the handler dependencies.
type Client struct {
	bot       botAPI
	logger    *logrus.Entry
	adminID   int64
	webAppURL string

	users    UserDirectory
	feedback FeedbackStore
	settings SettingsSource
	reporter Reporter
	stats    StatsProvider

	now func() time.Time
}

// Option configures optional Client dependencies.
type Option func(*Client)

// WithUserDirectory wires the user store used by /start and target lookups.
func WithUserDirectory(users UserDirectory) Option {
	return func(c *Client) { c.users = users }
}

// WithFeedbackStore wires the feedback mapping store.
func WithFeedbackStore(feedback FeedbackStore) Option {
	return func(c *Client) { c.feedback = feedback }
}

// WithSettingsSource wires the live settings snapshots.
func WithSettingsSource(settings SettingsSource) Option {
	return func(c *Client) { c.settings = settings }
}

// WithReporter wires the shared notification/report text builder.
func WithReporter(reporter Reporter) Option {
	return func(c *Client) { c.reporter = reporter }
}

// WithStatsProvider wires the counters behind the admin /status view.
func WithStatsProvider(stats StatsProvider) Option {
	return func(c *Client) { c.stats = stats }
}

// SetReporter wires the report text builder after construction. The notifier
// is built with this client as its sender, so it cannot exist yet when the
// client is created.
func (c *Client) SetReporter(reporter Reporter) {
	c.reporter = reporter
}

// NewClient initializes the Telegram bot with long polling and the update
// router as the default handler.
func NewClient(cfg config.Config, logger *logrus.Entry, options ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	client := &Client{
		logger:    logger,
		adminID:   cfg.AdminID,
		webAppURL: cfg.WebAppURL,
		now:       time.Now,
	}

	for _, opt := range options {
		opt(client)
	}

	tgBot, err := createBot(cfg.TelegramToken,
		bot.WithAllowedUpdates(defaultAllowedUpdates),
		bot.WithDefaultHandler(client.handleUpdate),
		bot.WithErrorsHandler(errorHandler(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}

	client.bot = tgBot
	return client, nil
}

// Start begins receiving updates via long polling until the context is canceled.
func (c *Client) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger.WithFields(logging.Fields{
		"event":           "telegram_listen",
		"allowed_updates": defaultAllowedUpdates,
	}).Info("starting telegram long polling")

	c.bot.Start(ctx)

	c.logger.WithField("event", "telegram_stopped").Info("telegram polling stopped")
}

// RegisterCommands publishes the slash command list shown in the Telegram UI.
func (c *Client) RegisterCommands(ctx context.Context) error {
	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: []models.BotCommand{
			{Command: "start", Description: "Botni ishga tushirish (yoki yangilash)"},
			{Command: "menu", Description: "Asosiy menyuni ko'rsatish"},
			{Command: "status", Description: "Bot holatini tekshirish"},
			{Command: "streak", Description: "Ketma-ket kunlar hisobotini olish"},
			{Command: "hadis", Description: "Bugungi kun hadisini o'qish"},
		},
	})
	if err != nil {
		return fmt.Errorf("set bot commands: %w", err)
	}

	c.logger.WithField("event", "commands_registered").Info("bot commands updated")
	return nil
}

// SendDiaryPrompt sends a message with the open-diary inline keyboard. The
// scheduler, broadcast dispatcher, and handlers all deliver through this.
func (c *Client) SendDiaryPrompt(ctx context.Context, chatID int64, text string) error {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: diaryInlineKeyboard(c.webAppURL),
	})
	if err != nil {
		return fmt.Errorf("send diary prompt: %w", err)
	}

	return nil
}

func (c *Client) sendPlain(ctx context.Context, chatID int64, text string) error {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

func (c *Client) sendMarkdown(ctx context.Context, chatID int64, text string) error {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:             chatID,
		Text:               text,
		ParseMode:          models.ParseModeMarkdown,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
	})
	return err
}

func (c *Client) currentDay() int {
	window := domain.DefaultRamadanWindow()
	if c.settings != nil {
		window = c.settings.Window()
	}

	return report.CurrentDay(window, c.now())
}

func errorHandler(logger *logrus.Entry) bot.ErrorsHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(err error) {
		if err == nil {
			return
		}

		logger.WithField("event", "telegram_error").WithError(err).Error("telegram polling error")
	}
}
