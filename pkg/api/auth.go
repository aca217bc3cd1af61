package api

import (
	echo "github.com/labstack/echo/v5"
)

// extractAuthor extracts the approval actor from oauth2-proxy headers,
// kept verbatim from tarsy's extractAuthor: X-Forwarded-User >
// X-Forwarded-Email > "api-client". Used as the actor default whenever
// an approve/reject/override request body omits one (SPEC_FULL.md §7).
func extractAuthor(c *echo.Context) string {
	if user := c.Request().Header.Get("X-Forwarded-User"); user != "" {
		return user
	}
	if email := c.Request().Header.Get("X-Forwarded-Email"); email != "" {
		return email
	}
	return "api-client"
}
