package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Sender adapts the Telegram client to scheduler.Sender. Kept separate from
// Router so the scheduler can be constructed before the router.
type Sender struct{ api API }

// NewSender wraps the Telegram client.
func NewSender(api API) *Sender {
	return &Sender{api: api}
}

// SendMessage sends a plain text message to the given chat.
func (s *Sender) SendMessage(chatID int64, text string) error {
	_, err := s.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
