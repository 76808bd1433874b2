package i18n

// englishMessages returns the English message table.
func englishMessages() map[string]string {
	return map[string]string{
		// Agent fallbacks
		"agent.empty_response": "I'm sorry, I couldn't generate a response. Please try rephrasing your question.",
		"agent.unavailable":    "I'm sorry, I'm unable to process your request right now. Please try again in a moment.",
		"agent.exhausted":      "I'm sorry, I couldn't complete that request. Could you rephrase or simplify it?",

		// Assistant boundaries
		"agent.refusal": "I'm sorry, I can only help with questions about our pharmacy's medications, stock, prescriptions and reservations. For medical advice please consult a pharmacist or a doctor.",

		// CLI chat
		"chat.welcome":   "Apotek pharmacy assistant %s. Type /help for commands, Ctrl+D to exit.",
		"chat.prompt":    "you> ",
		"chat.assistant": "apotek> ",
		"chat.goodbye":   "Goodbye!",
		"chat.cleared":   "Conversation cleared.",

		// Errors surfaced by the CLI
		"error.config":  "loading configuration: %v",
		"error.agent":   "creating agent: %v",
		"error.session": "creating session: %v",
	}
}
