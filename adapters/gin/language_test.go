package gategin

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func testContext(t *testing.T, target string, headers map[string]string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", target, nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestResolveLanguageQueryParamWins(t *testing.T) {
	c := testContext(t, "/entitlements/check?lang=es", map[string]string{"Accept-Language": "en-US,en;q=0.9"})
	cfg := (&LanguageConfig{Supported: []string{"en", "es"}}).defaulted()
	if got := resolveRequestLanguage(c, cfg); got != "es" {
		t.Errorf("lang = %q, want es", got)
	}
}

func TestResolveLanguageAcceptHeader(t *testing.T) {
	c := testContext(t, "/entitlements/check", map[string]string{"Accept-Language": "fr-FR,es;q=0.8,en;q=0.5"})
	cfg := (&LanguageConfig{Supported: []string{"en", "es"}}).defaulted()
	if got := resolveRequestLanguage(c, cfg); got != "es" {
		t.Errorf("lang = %q, want es (first supported)", got)
	}
}

func TestResolveLanguageFallsBackToDefault(t *testing.T) {
	c := testContext(t, "/entitlements/check", nil)
	cfg := (&LanguageConfig{Supported: []string{"en", "es"}}).defaulted()
	if got := resolveRequestLanguage(c, cfg); got != "en" {
		t.Errorf("lang = %q, want en", got)
	}
}

func TestNormalizeLangCode(t *testing.T) {
	cases := map[string]string{
		"EN":    "en",
		"es-MX": "es",
		"pt_BR": "pt",
		"":      "",
		"x!":    "",
		"deu":   "",
	}
	for in, want := range cases {
		if got := normalizeLangCode(in); got != want {
			t.Errorf("normalizeLangCode(%q) = %q, want %q", in, got, want)
		}
	}
}
