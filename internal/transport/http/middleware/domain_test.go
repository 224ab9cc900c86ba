package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func domainEcho(defaultDomain string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Domain(defaultDomain))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, DomainFrom(c))
	})
	return r
}

func TestDomainHeaderWins(t *testing.T) {
	r := domainEcho("default")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(DomainHeader, "acme")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "acme", w.Body.String())
}

func TestDomainFallsBackToDefault(t *testing.T) {
	r := domainEcho("default")

	for _, header := range []string{"", "   "} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set(DomainHeader, header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, "default", w.Body.String())
	}
}
