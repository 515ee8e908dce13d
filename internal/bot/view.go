package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/contractor-pro/internal/nav"
	"github.com/raine/contractor-pro/internal/photo"
	"github.com/raine/contractor-pro/internal/screen"
)

// Present implements app.Presenter by posting the view to the admin chat.
// A view identical to the previous one is not posted again.
func (b *Bot) Present(v screen.View) {
	key := viewKey(v)
	if key == b.lastSent {
		return
	}
	b.lastSent = key

	for _, c := range b.renderView(v) {
		b.send(c)
	}
}

func (b *Bot) renderView(v screen.View) []tgbotapi.Chattable {
	keyboard := actionKeyboard(v.Actions)

	switch {
	case v.DetailOpen && !v.Rendered.IsZero():
		p := tgbotapi.NewPhoto(b.adminID, photoFile(v.Rendered))
		p.Caption = MsgDetailCaption
		if keyboard != nil {
			p.ReplyMarkup = keyboard
		}
		return []tgbotapi.Chattable{p}

	case v.Screen == nav.Estimate && v.Error == "" && !v.Loading && !v.Rendered.IsZero():
		p := tgbotapi.NewPhoto(b.adminID, photoFile(v.Rendered))
		p.Caption = formatView(v)
		p.ParseMode = tgbotapi.ModeMarkdown
		if keyboard != nil {
			p.ReplyMarkup = keyboard
		}
		return []tgbotapi.Chattable{p}
	}

	msg := tgbotapi.NewMessage(b.adminID, formatView(v))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	return []tgbotapi.Chattable{msg}
}

// formatView renders the text part of a view as Markdown.
func formatView(v screen.View) string {
	var b strings.Builder

	switch {
	case v.Screen == nav.Dashboard:
		fmt.Fprintf(&b, "*%s*\n", escapeMarkdown(v.Title))
		for _, line := range v.Lines {
			fmt.Fprintf(&b, "\n*%s*\n", escapeMarkdown(line))
		}
		for _, j := range v.Jobs {
			fmt.Fprintf(&b, "• %s - %s\n  %s · %s\n",
				escapeMarkdown(j.Client), escapeMarkdown(j.Type), j.Price, escapeMarkdown(j.Status))
		}

	case v.Screen == nav.Capture:
		fmt.Fprintf(&b, "*%s*\n\n", escapeMarkdown(v.Title))
		b.WriteString(MsgCapturePrompt)

	case v.Loading:
		b.WriteString(MsgLoadingHeadline)
		for _, text := range v.LoadingText {
			fmt.Fprintf(&b, "\n%s", escapeMarkdown(text))
		}

	case v.Error != "" && v.Screen == nav.Estimate:
		b.WriteString(MsgFailedHeadline)

	default:
		if v.Estimate != nil {
			fmt.Fprintf(&b, "*Estimated Total: %s*\n\n*Cost Breakdown*\n", v.Estimate.Total)
			for _, item := range v.Estimate.Breakdown {
				fmt.Fprintf(&b, "%s: %s\n", escapeMarkdown(item.Label), item.Cost)
			}
		} else {
			for _, line := range v.Lines {
				fmt.Fprintf(&b, "%s\n", escapeMarkdown(line))
			}
		}
	}

	if v.Error != "" {
		fmt.Fprintf(&b, "\n\n%s", escapeMarkdown(v.Error))
	}
	return strings.TrimSpace(b.String())
}

func actionKeyboard(actions []screen.Action) *tgbotapi.InlineKeyboardMarkup {
	if len(actions) == 0 {
		return nil
	}
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(actions))
	for _, a := range actions {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(a.Label, callbackActionPrefix+string(a.ID)))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(row)
	return &markup
}

func photoFile(h photo.Handle) tgbotapi.RequestFileData {
	switch {
	case h.HasData():
		return tgbotapi.FileBytes{Name: "renovation" + extensionFor(h.MIMEType), Bytes: h.Data}
	case strings.HasPrefix(h.URI, "http://"), strings.HasPrefix(h.URI, "https://"):
		return tgbotapi.FileURL(h.URI)
	default:
		return tgbotapi.FilePath(strings.TrimPrefix(h.URI, "file://"))
	}
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// viewKey identifies what a view shows, for de-duplicating posts.
func viewKey(v screen.View) string {
	return fmt.Sprintf("%d|%s|%t|%t|%s|%s|%s|%v",
		v.Screen, v.Title, v.Loading, v.DetailOpen, v.Error, v.Rendered.String(), strings.Join(v.Lines, "\n"), v.Actions)
}
