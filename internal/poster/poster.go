// Package poster publishes live plays as a threaded series of social posts.
package poster

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/fortuna/dugout/internal/platform/logging"
)

// ErrNotConfigured is returned when posting credentials are missing.
var ErrNotConfigured = errors.New("poster not configured")

// Poster posts text and returns the id of the new post. A non-empty replyTo
// threads the post under an earlier one.
type Poster interface {
	Post(ctx context.Context, text, replyTo string) (string, error)
}

// sender is the part of the bot API the poster uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramPoster posts to a Telegram chat, threading through replies.
type TelegramPoster struct {
	bot    sender
	chatID int64
}

// NewTelegramPoster connects a bot. It returns ErrNotConfigured when the
// token or chat id is missing.
func NewTelegramPoster(token string, chatID int64) (*TelegramPoster, error) {
	if token == "" || chatID == 0 {
		return nil, ErrNotConfigured
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "connect telegram bot")
	}
	return &TelegramPoster{bot: bot, chatID: chatID}, nil
}

// Post sends text to the chat.
func (p *TelegramPoster) Post(_ context.Context, text, replyTo string) (string, error) {
	msg := tgbotapi.NewMessage(p.chatID, text)
	msg.DisableWebPagePreview = true
	if replyTo != "" {
		id, err := strconv.Atoi(replyTo)
		if err != nil {
			return "", errors.Wrapf(err, "invalid reply id %q", replyTo)
		}
		msg.ReplyToMessageID = id
		msg.AllowSendingWithoutReply = true
	}

	sent, err := p.bot.Send(msg)
	if err != nil {
		return "", errors.Wrap(err, "send telegram message")
	}
	return strconv.Itoa(sent.MessageID), nil
}

// LogPoster writes posts to the log instead of publishing them.
type LogPoster struct {
	log *logging.Logger
}

// NewLogPoster creates a dry-run poster.
func NewLogPoster(log *logging.Logger) *LogPoster {
	return &LogPoster{log: log}
}

// Post logs text and returns a fresh id.
func (p *LogPoster) Post(_ context.Context, text, replyTo string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", errors.Wrap(err, "generate post id")
	}
	p.log.Info("dry-run post", "id", id, "reply_to", replyTo, "length", len([]rune(text)), "text", text)
	return id, nil
}
