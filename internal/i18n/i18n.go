// Package i18n provides the user-facing message catalog (en/fr).
// French is the default and the fallback language.
package i18n

import (
	"context"
	"strings"
)

type ctxKey string

const langCtxKey = ctxKey("lang")

const defaultLang = "fr"

// translations maps language -> message code -> message.
var translations = map[string]map[string]string{
	"en": {
		"unauthorized":          "You must be logged in to do this",
		"validation_failed":     "Some fields are missing or invalid",
		"number_conflict":       "This invoice number is already in use, please retry",
		"forbidden_transition":  "This status change is not allowed",
		"finalized_no_delete":   "Cannot delete a finalized invoice",
		"not_found":             "Invoice not found",
		"store_unavailable":     "The service is temporarily unavailable, please retry",
		"internal_error":        "Something went wrong, please retry",
		"email_already_used":    "This email address is already registered",
		"invalid_credentials":   "Invalid email or password",
		"idempotency_conflict":  "This request was already submitted with a different payload",
		"idempotency_replaying": "This request is still being processed",
	},
	"fr": {
		"unauthorized":          "Vous devez être connecté pour faire cela",
		"validation_failed":     "Certains champs sont manquants ou invalides",
		"number_conflict":       "Ce numéro de facture est déjà utilisé, veuillez réessayer",
		"forbidden_transition":  "Ce changement de statut n'est pas autorisé",
		"finalized_no_delete":   "Impossible de supprimer une facture finalisée",
		"not_found":             "Facture introuvable",
		"store_unavailable":     "Le service est temporairement indisponible, veuillez réessayer",
		"internal_error":        "Une erreur est survenue, veuillez réessayer",
		"email_already_used":    "Cette adresse email est déjà enregistrée",
		"invalid_credentials":   "Email ou mot de passe invalide",
		"idempotency_conflict":  "Cette requête a déjà été soumise avec un contenu différent",
		"idempotency_replaying": "Cette requête est encore en cours de traitement",
	},
}

// DetectLanguage picks a supported language from an Accept-Language header.
// Unknown or empty headers fall back to French.
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		code := strings.ToLower(strings.TrimSpace(part))
		if idx := strings.IndexAny(code, "-;"); idx > 0 {
			code = code[:idx]
		}
		if _, ok := translations[code]; ok {
			return code
		}
	}
	return defaultLang
}

// T translates a message code for the given language.
// Unknown languages fall back to French; unknown codes fall back to the code itself.
func T(lang, code string) string {
	if msgs, ok := translations[lang]; ok {
		if msg, ok := msgs[code]; ok {
			return msg
		}
	}
	if msg, ok := translations[defaultLang][code]; ok {
		return msg
	}
	return code
}

// WithLang stores the language preference in the context.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langCtxKey, lang)
}

// Lang returns the language stored in the context, or the default.
func Lang(ctx context.Context) string {
	if v, ok := ctx.Value(langCtxKey).(string); ok && v != "" {
		return v
	}
	return defaultLang
}
