package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSwaggerProtection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(cfg SwaggerConfig, remoteAddr string) int {
		router := gin.New()
		router.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) {
			c.String(http.StatusOK, "docs")
		})
		req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("disabled returns 404", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(SwaggerConfig{Enabled: false}, "10.0.0.1:1234"))
	})

	t.Run("enabled without whitelist allows all", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(SwaggerConfig{Enabled: true}, "203.0.113.9:1234"))
	})

	t.Run("exact IP match", func(t *testing.T) {
		cfg := SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}
		assert.Equal(t, http.StatusOK, serve(cfg, "10.0.0.1:1234"))
		assert.Equal(t, http.StatusForbidden, serve(cfg, "10.0.0.2:1234"))
	})

	t.Run("CIDR match", func(t *testing.T) {
		cfg := SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16", "bogus"}}
		assert.Equal(t, http.StatusOK, serve(cfg, "192.168.10.20:1234"))
		assert.Equal(t, http.StatusForbidden, serve(cfg, "172.16.0.1:1234"))
	})
}
