package api

import (
	"net/http"

	"github.com/spf13/cast"

	"merchant-analytics-layer/internal/domain"
)

// OrgIDMiddleware extracts the X-Org-ID header into the request context.
// Requests without the header fall back to the default org, so
// single-tenant installs work with no header at all.
func OrgIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orgID := cast.ToUint(r.Header.Get("X-Org-ID"))
			if orgID == 0 {
				orgID = domain.DefaultOrgID
			}
			next.ServeHTTP(w, r.WithContext(domain.WithOrgID(r.Context(), orgID)))
		})
	}
}
