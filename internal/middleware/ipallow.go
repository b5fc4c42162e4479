package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/util"
)

// IPAllowList restricts the whole application to the configured addresses
// and CIDR ranges. An empty list denies everything, so a missing config
// entry fails closed rather than open.
func IPAllowList(allowed []string, log zerolog.Logger) gin.HandlerFunc {
	var ips []net.IP
	var nets []*net.IPNet
	for _, entry := range allowed {
		if _, n, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, n)
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			ips = append(ips, ip)
			continue
		}
		log.Warn().Str("entry", entry).Msg("ignoring unparsable allow-list entry")
	}

	return func(c *gin.Context) {
		client := net.ParseIP(c.ClientIP())
		if client != nil {
			for _, ip := range ips {
				if ip.Equal(client) {
					c.Next()
					return
				}
			}
			for _, n := range nets {
				if n.Contains(client) {
					c.Next()
					return
				}
			}
		}
		log.Warn().Str("ip", c.ClientIP()).Str("path", c.Request.URL.Path).Msg("rejected client outside allow-list")
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "access restricted")
		c.Abort()
	}
}
