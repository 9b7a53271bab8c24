package bot

import (
	"context"
	"io"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/teleshop/internal/upload"
)

type telegramFiles struct {
	bot *tele.Bot
}

// NewFileSource adapts the bot's file API to the upload pipeline.
func NewFileSource(b *tele.Bot) upload.FileSource {
	return &telegramFiles{bot: b}
}

func (t *telegramFiles) Open(_ context.Context, fileID string) (io.ReadCloser, error) {
	file, err := t.bot.FileByID(fileID)
	if err != nil {
		return nil, err
	}
	return t.bot.File(&file)
}
