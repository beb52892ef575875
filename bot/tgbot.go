package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"stockbuddy/core"
	"stockbuddy/lib/sl"
)

const errorResponse = "Sorry, I'm not feeling well today. Please try again later."

// TgBot is an optional second inbound transport: each private text message
// runs through the same prompt pipeline as the HTTP endpoint, keyed by
// chat id. Images are not accepted over this channel.
type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.BotAPI
	service core.PromptService
	quit    chan struct{}
}

func NewTgBot(conf *core.Config, log *slog.Logger, service core.PromptService) (*TgBot, error) {
	api, err := tgbotapi.NewBotAPI(conf.Telegram.ApiKey)
	if err != nil {
		return nil, err
	}
	return &TgBot{
		log:     log.With(sl.Module("tgbot")),
		api:     api,
		service: service,
		quit:    make(chan struct{}),
	}, nil
}

func (t *TgBot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := t.api.GetUpdatesChan(u)
	if err != nil {
		return err
	}

	for {
		select {
		case <-t.quit:
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			if !update.Message.Chat.IsPrivate() {
				continue
			}

			incoming := update.Message
			logText := incoming.Text
			if len(logText) > 50 {
				logText = logText[:50] + "..."
			}
			t.log.With(
				slog.String("user", incoming.From.UserName),
				slog.String("text", logText),
			).Info("incoming message")

			go t.respond(incoming.Chat.ID, incoming.Text)
		}
	}
}

func (t *TgBot) Stop() {
	close(t.quit)
}

// respond runs the pipeline and sends the reply, keeping a typing action
// going while the relay call is in flight.
func (t *TgBot) respond(chatId int64, text string) {
	stopTyping := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		t.sendChatAction(chatId, "typing")
		for {
			select {
			case <-ticker.C:
				t.sendChatAction(chatId, "typing")
			case <-stopTyping:
				return
			}
		}
	}()

	reply, err := t.service.Send(context.Background(), fmt.Sprintf("tg:%d", chatId), text, nil)
	close(stopTyping)

	response := errorResponse
	if err != nil {
		t.log.Error("getting response", sl.Err(err))
	} else {
		response = reply.Text
	}

	msg := tgbotapi.NewMessage(chatId, response)
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("sending message", sl.Err(err))
	}
}

func (t *TgBot) sendChatAction(chatId int64, action string) {
	msg := tgbotapi.NewChatAction(chatId, action)
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("sending chat action", sl.Err(err))
	}
}
