package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const ContextDomainKey = "domain_id"

// DomainHeader is the request header scoping catalog operations to a tenant
// domain.
const DomainHeader = "X-Domain-Id"

// Domain resolves the caller's domain from X-Domain-Id, falling back to the
// configured default when absent.
func Domain(defaultDomain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain := strings.TrimSpace(c.GetHeader(DomainHeader))
		if domain == "" {
			domain = defaultDomain
		}
		c.Set(ContextDomainKey, domain)
		c.Next()
	}
}

// DomainFrom reads the resolved domain out of the request context.
func DomainFrom(c *gin.Context) string {
	return c.GetString(ContextDomainKey)
}
