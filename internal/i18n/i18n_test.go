package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", "fr"},
		{"fr", "fr"},
		{"fr-FR,fr;q=0.9", "fr"},
		{"en", "en"},
		{"en-US,en;q=0.9,fr;q=0.8", "en"},
		{"de-DE,de;q=0.9", "fr"},
	}
	for _, c := range cases {
		if got := DetectLanguage(c.header); got != c.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", c.header, got, c.want)
		}
	}
}

func TestTranslationFallbacks(t *testing.T) {
	if got := T("en", "number_conflict"); got == "" || got == "number_conflict" {
		t.Errorf("en translation missing for number_conflict: %q", got)
	}
	// unknown language falls back to french
	if got, want := T("de", "number_conflict"), T("fr", "number_conflict"); got != want {
		t.Errorf("T(de) = %q, want french fallback %q", got, want)
	}
	// unknown code falls back to the code itself
	if got := T("fr", "no_such_code"); got != "no_such_code" {
		t.Errorf("T(fr, no_such_code) = %q", got)
	}
}

func TestAllCodesHaveBothLanguages(t *testing.T) {
	for code := range translations["fr"] {
		if _, ok := translations["en"][code]; !ok {
			t.Errorf("code %q missing english translation", code)
		}
	}
	for code := range translations["en"] {
		if _, ok := translations["fr"][code]; !ok {
			t.Errorf("code %q missing french translation", code)
		}
	}
}

func TestLangContext(t *testing.T) {
	ctx := context.Background()
	if got := Lang(ctx); got != "fr" {
		t.Errorf("default lang = %q, want fr", got)
	}
	ctx = WithLang(ctx, "en")
	if got := Lang(ctx); got != "en" {
		t.Errorf("lang = %q, want en", got)
	}
}
