package handlers

import "server/internal/access"

const reasonQuotaExceeded = "quota_exceeded"

// Denial messages distinguish "log in" from "upgrade" flows so clients can
// render the right call to action.
var denialMessages = map[string]map[string]string{
	"en": {
		access.ReasonUnauthenticated: "Log in to watch this lesson.",
		access.ReasonTierTooLow:      "Upgrade your membership to watch this lesson.",
		reasonQuotaExceeded:          "You have used today's chat allowance for this lesson. It resets tomorrow, or upgrade for more.",
	},
	"id": {
		access.ReasonUnauthenticated: "Masuk untuk menonton pelajaran ini.",
		access.ReasonTierTooLow:      "Tingkatkan keanggotaan Anda untuk menonton pelajaran ini.",
		reasonQuotaExceeded:          "Kuota chat harian untuk pelajaran ini sudah habis. Coba lagi besok atau tingkatkan keanggotaan Anda.",
	},
}

func denialMessage(locale, reason string) string {
	if msgs, ok := denialMessages[locale]; ok {
		if msg, ok := msgs[reason]; ok {
			return msg
		}
	}
	return denialMessages["en"][reason]
}
