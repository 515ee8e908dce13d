// Package bot is the Telegram front end. It forwards the admin's messages
// and button presses to an app.Session and posts the rendered views back.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/contractor-pro/internal/app"
	"github.com/raine/contractor-pro/internal/photo"
	"github.com/raine/contractor-pro/internal/screen"
	"github.com/rs/zerolog/log"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// EventSender accepts session events.
type EventSender interface {
	Send(ev app.Event)
	SendSync(ev app.Event)
}

// Bot is the main Telegram bot handler. Only the admin is served; every
// other user is dropped silently.
type Bot struct {
	tg      BotAPI
	adminID int64
	session EventSender

	// lastSent is only touched from Present, which runs on the session worker
	lastSent string
}

// NewBot creates a new Bot instance.
func NewBot(tg BotAPI, adminID int64) *Bot {
	return &Bot{tg: tg, adminID: adminID}
}

// SetSession sets the session that receives events. The session is created
// with the bot as its presenter, so this is done after construction.
func (b *Bot) SetSession(s EventSender) {
	b.session = s
}

// HandleUpdate is the main message router.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync is like HandleUpdate but waits for the session to process
// the resulting events. Used in tests.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, sync bool) {
	var userId int64
	if update.CallbackQuery != nil {
		userId = update.CallbackQuery.From.ID
	} else if update.Message != nil && update.Message.From != nil {
		userId = update.Message.From.ID
	} else {
		return
	}

	if userId != b.adminID {
		log.Debug().Int64("userId", userId).Msg("dropping update from non-admin user")
		return
	}
	if b.session == nil {
		log.Error().Msg("bot session not set")
		return
	}

	send := func(ev app.Event) {
		if sync {
			b.session.SendSync(ev)
		} else {
			b.session.Send(ev)
		}
	}

	if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery, send)
		return
	}

	message := update.Message
	log.Info().Str("text", message.Text).Int("photos", len(message.Photo)).Msg("got message")

	if len(message.Photo) > 0 {
		b.handlePhotoMessage(ctx, message, send)
		return
	}
	b.handleCommand(message, send)
}

// handlePhotoMessage downloads the largest photo size and starts a new
// estimate for it from any screen.
func (b *Bot) handlePhotoMessage(ctx context.Context, message *tgbotapi.Message, send func(app.Event)) {
	largest := message.Photo[len(message.Photo)-1]
	data, err := downloadFileID(ctx, b.tg.GetFileDirectURL, largest.FileID)
	if err != nil {
		log.Error().Err(err).Str("fileID", largest.FileID).Msg("failed to download photo")
		b.reply(MsgPhotoDownload, escapeMarkdown(err.Error()))
		return
	}

	// One event, so photos handled concurrently cannot interleave
	send(app.Event{Kind: app.EventPhoto, Image: photo.FromBytes(data, "image/jpeg")})
}

func (b *Bot) handleCommand(message *tgbotapi.Message, send func(app.Event)) {
	command, _ := parseCommand(message.Text)
	switch command {
	case "/start":
		send(app.Event{Kind: app.EventDashboard})
	case "/new":
		send(app.Event{Kind: app.EventNewEstimate})
	case "/capture":
		send(app.Event{Kind: app.EventNewEstimate})
		send(app.Event{Kind: app.EventCapture})
	default:
		b.reply(MsgHelp)
	}
}

// handleCallbackQuery handles inline keyboard button presses.
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery, send func(app.Event)) {
	// Answer the callback to remove the loading state
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := b.tg.Request(callback); err != nil {
		log.Debug().Err(err).Msg("failed to answer callback")
	}

	action, ok := strings.CutPrefix(query.Data, callbackActionPrefix)
	if !ok {
		log.Warn().Str("data", query.Data).Msg("unknown callback data")
		return
	}
	send(app.EventFor(screen.ActionID(action)))
}

func (b *Bot) reply(text string, a ...any) {
	msg := tgbotapi.NewMessage(b.adminID, formatReplyText(text, a...))
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.tg.Send(c); err != nil {
		log.Error().Err(err).Msg("failed to send message")
	}
}
