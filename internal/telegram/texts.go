package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// UI texts in English
const (
	startText           = "Welcome! Use /register to sign up, then /check_sql to validate queries."
	startRegisteredText = "You are already registered. Use /check_sql to validate queries."

	askSurnameText        = "Enter your surname:"
	askNameText           = "Enter your name:"
	askPatronymicText     = "Enter your patronymic:"
	alreadyRegisteredText = "You are already registered!"
	registeredFmt         = "Registration complete! Welcome, %s."
	notRegisteredText     = "You are not registered. Use /register first."

	checkSQLUsageText = "Please provide an SQL query after the command, e.g.: /check_sql SELECT * FROM users"
	queryOKText       = "Your query is correct."
	queryErrorFmt     = "Query error: %s"
	queryUncheckedFmt = "The query could not be fully checked (%s), counting it as correct."
	analysisFmt       = "Error analysis:\n\n%s"

	dialogueExitText    = "Leaving the dialogue. Use /check_sql to validate another query."
	dialogueCommandText = "Commands are ignored in dialogue mode. Use /quit to leave."

	scheduleUsageText     = "Usage: /schedule <minutes>, e.g.: /schedule 30"
	scheduledFmt          = "Statistics will be sent every %d minutes. Use /cancel_schedule to stop."
	scheduleCancelledText = "Statistics notifications cancelled."
	noScheduleText        = "You have no active schedule."

	unknownText        = "I don't understand that message. Please use the available commands."
	transientErrorText = "Something went wrong, please try again later."
)

// mainMenuKeyboard builds a reply keyboard with the common commands.
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/register"),
			tgbotapi.NewKeyboardButton("/stats"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/cancel_schedule"),
		),
	)
}

// botCommands is the menu published via SetMyCommands.
func botCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Start interacting with the bot"},
		{Command: "register", Description: "Register in the system"},
		{Command: "check_sql", Description: "Check an SQL query"},
		{Command: "stats", Description: "Show your usage statistics"},
		{Command: "schedule", Description: "Receive statistics every N minutes"},
		{Command: "cancel_schedule", Description: "Stop statistics notifications"},
		{Command: "quit", Description: "Leave the error analysis dialogue"},
	}
}
