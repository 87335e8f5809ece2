package utils

// Minimal server-side i18n for fixed keys.
// UI strings should live in the frontend; server provides only essentials.

var translations = map[string]map[string]string{
	"it": {
		"health.ok":            "ok",
		"quiz.answer.required": "Rispondi alla domanda per continuare",
		"quiz.too_many":        "Puoi selezionare al massimo %d opzioni",
		"quiz.email.invalid":   "Inserisci un indirizzo email valido",
		"quiz.name.required":   "Inserisci il tuo nome",
		"payment.failed":       "Pagamento non riuscito, riprova",
	},
	"en": {
		"health.ok":            "ok",
		"quiz.answer.required": "Answer the question to continue",
		"quiz.too_many":        "You can select at most %d options",
		"quiz.email.invalid":   "Enter a valid email address",
		"quiz.name.required":   "Enter your name",
		"payment.failed":       "Payment failed, please retry",
	},
}

// T returns the translated string for key in locale; falls back to Italian.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["it"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}
