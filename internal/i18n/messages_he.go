package i18n

// hebrewMessages returns the Hebrew message table.
func hebrewMessages() map[string]string {
	return map[string]string{
		// Agent fallbacks
		"agent.empty_response": "מצטערים, לא הצלחתי לנסח תשובה. נסו לנסח את השאלה מחדש.",
		"agent.unavailable":    "מצטערים, איני יכול לטפל בבקשה כרגע. נסו שוב בעוד רגע.",
		"agent.exhausted":      "מצטערים, לא הצלחתי להשלים את הבקשה. אפשר לנסח אותה מחדש או לפשט אותה?",

		// Assistant boundaries
		"agent.refusal": "מצטערים, אני יכול לסייע רק בשאלות על תרופות, מלאי, מרשמים והזמנות בבית המרקחת שלנו. לייעוץ רפואי פנו לרוקח או לרופא.",

		// CLI chat
		"chat.welcome":   "עוזר בית המרקחת אפותיק %s. הקלידו ‎/help לפקודות, Ctrl+D ליציאה.",
		"chat.prompt":    "you> ",
		"chat.assistant": "apotek> ",
		"chat.goodbye":   "להתראות!",
		"chat.cleared":   "השיחה נוקתה.",

		// Errors surfaced by the CLI
		"error.config":  "שגיאה בטעינת התצורה: %v",
		"error.agent":   "שגיאה ביצירת הסוכן: %v",
		"error.session": "שגיאה ביצירת השיחה: %v",
	}
}
