package gategin

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	gatelang "github.com/PaulFidika/plankit/lang"
)

// LanguageConfig controls how the request language is inferred for deny copy.
type LanguageConfig struct {
	Supported  []string
	Default    string
	QueryParam string
	CookieName string
}

func (c *LanguageConfig) defaulted() LanguageConfig {
	if c == nil {
		return LanguageConfig{
			Default:    gatelang.Default,
			QueryParam: "lang",
			CookieName: "lang",
		}
	}
	out := *c
	if strings.TrimSpace(out.Default) == "" {
		out.Default = gatelang.Default
	}
	if strings.TrimSpace(out.QueryParam) == "" {
		out.QueryParam = "lang"
	}
	if strings.TrimSpace(out.CookieName) == "" {
		out.CookieName = "lang"
	}
	return out
}

var reSimpleLang = regexp.MustCompile(`^[a-z]{2}$`)

func normalizeLangCode(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}
	if i := strings.IndexAny(s, "-_"); i >= 0 {
		s = s[:i]
	}
	if !reSimpleLang.MatchString(s) {
		return ""
	}
	return s
}

func supportedSet(supported []string) map[string]struct{} {
	if len(supported) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(supported))
	for _, s := range supported {
		if n := normalizeLangCode(s); n != "" {
			m[n] = struct{}{}
		}
	}
	return m
}

func accept(lang string, supported map[string]struct{}) bool {
	if lang == "" {
		return false
	}
	if supported == nil {
		return true
	}
	_, ok := supported[lang]
	return ok
}

func pickFromAcceptLanguage(header string, supported map[string]struct{}) string {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if i := strings.IndexByte(part, ';'); i >= 0 {
			part = part[:i]
		}
		if lang := normalizeLangCode(part); accept(lang, supported) {
			return lang
		}
	}
	return ""
}

// resolveRequestLanguage: `?lang` query param > `lang` cookie >
// `Accept-Language` header > default.
func resolveRequestLanguage(c *gin.Context, cfg LanguageConfig) string {
	supported := supportedSet(cfg.Supported)

	if qp := normalizeLangCode(c.Query(cfg.QueryParam)); accept(qp, supported) {
		return qp
	}
	if cfg.CookieName != "" {
		if cv, err := c.Cookie(cfg.CookieName); err == nil {
			if ck := normalizeLangCode(cv); accept(ck, supported) {
				return ck
			}
		}
	}
	if al := pickFromAcceptLanguage(c.GetHeader("Accept-Language"), supported); al != "" {
		return al
	}
	if def := normalizeLangCode(cfg.Default); accept(def, supported) {
		return def
	}
	return gatelang.Default
}

// LanguageMiddleware infers request language and attaches it to the request
// context so deny messages render in the caller's language.
func LanguageMiddleware(cfg *LanguageConfig) gin.HandlerFunc {
	resolved := cfg.defaulted()
	return func(g *gin.Context) {
		lang := resolveRequestLanguage(g, resolved)
		g.Set("plankit.language", lang)
		g.Request = g.Request.WithContext(gatelang.WithLanguage(g.Request.Context(), lang))
		g.Next()
	}
}
