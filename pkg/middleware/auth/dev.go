package auth

import "net/http"

// Dev-only principal injection via headers when AUTH_DEV_BYPASS=true
func devPrincipalFromHeaders(r *http.Request) Principal {
	sub := r.Header.Get("X-Dev-User")
	if sub == "" {
		return Principal{}
	}
	return Principal{
		Subject:  sub,
		Username: sub,
		TokenUse: firstNonEmpty(r.Header.Get("X-Dev-Token-Use"), "access"),
		Groups:   splitList(r.Header.Get("X-Dev-Groups")),
	}
}
