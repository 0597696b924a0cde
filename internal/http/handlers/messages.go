package handlers

import (
	"net/http"

	"slidegen/internal/middleware"
)

// errorMessages holds the localized user-facing copy per error type. The i18n
// middleware narrows locales to the supported set, so a two-level lookup with
// an English fallback is enough.
var errorMessages = map[string]map[string]string{
	"en": {
		"error_title":       "Generation Failed",
		"bad_request":       "Raw data is required to generate a slide.",
		"payload_too_large": "The submitted data is too large for one slide.",
		"timeout":           "Slide generation timed out. Please try again.",
		"quota_exceeded":    "The generation backend is throttling requests. Try again later.",
		"not_configured":    "No generation backend is configured.",
		"not_found":         "The requested item does not exist.",
		"internal":          "Slide generation failed unexpectedly.",
	},
	"id": {
		"error_title":       "Pembuatan Gagal",
		"bad_request":       "Data mentah wajib diisi untuk membuat slide.",
		"payload_too_large": "Data yang dikirim terlalu besar untuk satu slide.",
		"timeout":           "Pembuatan slide melebihi batas waktu. Silakan coba lagi.",
		"quota_exceeded":    "Backend pembuatan sedang membatasi permintaan. Coba lagi nanti.",
		"not_configured":    "Backend pembuatan belum dikonfigurasi.",
		"not_found":         "Item yang diminta tidak ditemukan.",
		"internal":          "Pembuatan slide gagal secara tidak terduga.",
	},
}

func localizedMessage(r *http.Request, key string) string {
	locale := middleware.LocaleFromContext(r.Context())
	if msgs, ok := errorMessages[locale]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := errorMessages["en"][key]; ok {
		return msg
	}
	return key
}
