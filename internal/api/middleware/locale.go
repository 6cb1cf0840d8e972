package middleware

import (
	"net/http"

	"golang.org/x/text/language"

	"github.com/daap14/coachgate/internal/locale"
)

// Negotiator picks a supported language for an Accept-Language header.
type Negotiator interface {
	Negotiate(acceptLanguage string) language.Tag
}

// Locale stores the negotiated language in the request context and echoes
// it in Content-Language.
func Locale(n Negotiator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := n.Negotiate(r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", tag.String())
			next.ServeHTTP(w, r.WithContext(locale.WithLanguage(r.Context(), tag)))
		})
	}
}
