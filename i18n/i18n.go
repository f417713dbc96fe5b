// Package i18n provides internationalization support for eqtrans itself.
//
// It wraps the gotext library to provide a simple T() function
// for translating eqtrans's user-facing strings. Translations are embedded
// in the binary via //go:embed and loaded at startup via Init().
//
// Usage:
//
//	import "github.com/eq-tools/eqtrans/i18n"
//
//	func main() {
//	    i18n.Init("")  // auto-detect from EQTRANS_LANG/LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	    fmt.Println(i18n.T("Hello, world!"))
//	}
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the .po translation files.
// Directory structure: locales/{lang}/LC_MESSAGES/eqtrans.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for eqtrans.
const domain = "eqtrans"

// langEnv overrides the locale environment for eqtrans only.
const langEnv = "EQTRANS_LANG"

// po is the gotext locale object used for translations.
var po *gotext.Locale

// messages holds the translated strings of po's domain by msgid.
var messages map[string]string

// current is the language passed to gotext by Init.
var current string

// Init initializes the i18n system. If lang is empty, it auto-detects
// from EQTRANS_LANG and then LANGUAGE, LC_ALL, LC_MESSAGES, LANG
// (in that order, matching GNU gettext behavior).
//
// Init should be called once at program startup, before any T() calls.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	current = lang
	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)

	messages = make(map[string]string)
	for id, tr := range po.GetTranslations() {
		if id != "" && tr.IsTranslated() {
			messages[id] = tr.Get()
		}
	}
}

// T translates a string. If no translation is available, returns the
// original string unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	if t, ok := messages[msgid]; ok {
		return t
	}
	return msgid
}

// Lang returns the language T translates into, or "" before Init.
func Lang() string {
	if po == nil {
		return ""
	}
	return current
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	// GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG
	for _, env := range []string{langEnv, "LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list; take the first
			if env == "LANGUAGE" || env == langEnv {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// Strip encoding suffix (e.g. "ru_RU.UTF-8" -> "ru_RU")
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			// Skip "C" and "POSIX": these mean no translation
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}
