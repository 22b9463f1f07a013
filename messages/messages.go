package messages

import (
	"context"

	"github.com/PaulFidika/plankit/entitlements"
	"github.com/PaulFidika/plankit/lang"
)

// Copy tables per language. Every entry set must carry the generic key so
// unknown reason codes always render.
const generic = "generic"

var copyTables = map[string]map[string]string{
	"en": {
		generic:                                     "This feature is not available on your current plan.",
		string(entitlements.APIDown):                "We couldn't verify your plan right now. Please try again in a moment.",
		string(entitlements.NotEntitled):            "Your plan doesn't include this feature. Upgrade to unlock it.",
		string(entitlements.UpdateBlocked):          "Your account is locked. Renew your subscription to make changes.",
		string(entitlements.ViewOnlyBlocked):        "Your plan is in view-only mode. Upgrade to edit and create.",
		string(entitlements.ImplementationMissing):  "This feature failed to load. Please refresh and try again.",
		string(entitlements.GracePeriod):            "Your plan has expired. You have temporary access during the grace period.",
		"fallback":                                  "Running in limited mode while we reconnect to your plan.",
	},
	"es": {
		generic:                                     "Esta función no está disponible en tu plan actual.",
		string(entitlements.APIDown):                "No pudimos verificar tu plan en este momento. Inténtalo de nuevo en unos instantes.",
		string(entitlements.NotEntitled):            "Tu plan no incluye esta función. Mejora tu plan para desbloquearla.",
		string(entitlements.UpdateBlocked):          "Tu cuenta está bloqueada. Renueva tu suscripción para hacer cambios.",
		string(entitlements.ViewOnlyBlocked):        "Tu plan está en modo de solo lectura. Mejora tu plan para editar y crear.",
		string(entitlements.ImplementationMissing):  "Esta función no se pudo cargar. Actualiza la página e inténtalo de nuevo.",
		string(entitlements.GracePeriod):            "Tu plan ha caducado. Tienes acceso temporal durante el período de gracia.",
		"fallback":                                  "Funcionando en modo limitado mientras reconectamos con tu plan.",
	},
}

func table(ctx context.Context) map[string]string {
	if t, ok := copyTables[lang.Resolve(ctx)]; ok {
		return t
	}
	return copyTables[lang.Default]
}

// DenyMessage renders user-facing copy for a reason code. It is total:
// codes added after this mapper still map to the generic deny message.
func DenyMessage(ctx context.Context, code entitlements.ReasonCode) string {
	t := table(ctx)
	if msg, ok := t[string(code)]; ok && code != entitlements.ReasonNone {
		return msg
	}
	return t[generic]
}

// GraceMessage renders the advisory grace-period banner copy. Advisory only;
// it never accompanies a deny.
func GraceMessage(ctx context.Context) string {
	return table(ctx)[string(entitlements.GracePeriod)]
}

// FallbackMessage renders the degraded-mode notice shown while the engine is
// serving the fallback plan.
func FallbackMessage(ctx context.Context) string {
	return table(ctx)["fallback"]
}
