package telegram

import "github.com/go-telegram/bot/models"

// diaryInlineKeyboard is the single web-app button attached to every
// notification and most replies.
func diaryInlineKeyboard(webAppURL string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: ButtonOpenDiary, WebApp: &models.WebAppInfo{URL: webAppURL}},
			},
		},
	}
}

// menuReplyKeyboard is the persistent bottom menu sent on /start and /menu.
func menuReplyKeyboard(webAppURL string) *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]models.KeyboardButton{
			{
				{Text: ButtonOpenDiary, WebApp: &models.WebAppInfo{URL: webAppURL}},
			},
			{
				{Text: ButtonMorningDua},
				{Text: ButtonEveningDua},
			},
			{
				{Text: ButtonFeedback},
				{Text: ButtonAbout},
			},
		},
	}
}
