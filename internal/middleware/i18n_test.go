package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestI18NDetectsLocale(t *testing.T) {
	cases := []struct {
		name        string
		headers     map[string]string
		lookup      CountryLookup
		wantLocale  string
		wantCountry string
	}{
		{
			name:       "x_locale_header_wins",
			headers:    map[string]string{"X-Locale": "id", "Accept-Language": "en-US"},
			wantLocale: "id",
			// Accept-Language still contributes the region.
			wantCountry: "US",
		},
		{
			name:        "accept_language_indonesian",
			headers:     map[string]string{"Accept-Language": "id-ID,id;q=0.9"},
			wantLocale:  "id",
			wantCountry: "ID",
		},
		{
			name:        "accept_language_variant_folds_to_english",
			headers:     map[string]string{"Accept-Language": "en-GB"},
			wantLocale:  "en",
			wantCountry: "GB",
		},
		{
			name:        "cdn_country_header",
			headers:     map[string]string{"CF-IPCountry": "id"},
			wantLocale:  "id",
			wantCountry: "ID",
		},
		{
			name: "geoip_lookup_fallback",
			lookup: func(ip string) (string, error) {
				return "ID", nil
			},
			wantLocale:  "id",
			wantCountry: "ID",
		},
		{
			name: "lookup_error_falls_back_to_default",
			lookup: func(ip string) (string, error) {
				return "", errors.New("db unavailable")
			},
			wantLocale: "en",
		},
		{
			name:       "unsupported_locale_defaults",
			headers:    map[string]string{"X-Locale": "zz-invalid"},
			wantLocale: "en",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var gotLocale, gotCountry string
			handler := I18N("en", tc.lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotLocale = LocaleFromContext(r.Context())
				gotCountry = CountryFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.9:4321"
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if gotLocale != tc.wantLocale {
				t.Fatalf("locale = %q, want %q", gotLocale, tc.wantLocale)
			}
			if gotCountry != tc.wantCountry {
				t.Fatalf("country = %q, want %q", gotCountry, tc.wantCountry)
			}
		})
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.10:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.1, 198.51.100.2")
	if got := ClientIP(req); got != "203.0.113.1" {
		t.Fatalf("ClientIP = %q, want first forwarded entry", got)
	}
}
