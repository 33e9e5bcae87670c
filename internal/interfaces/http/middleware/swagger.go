package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// SwaggerConfig controls access to the API documentation endpoint
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	AllowedIPs  []string // single IPs or CIDR ranges; empty allows all
}

// SwaggerProtection guards /swagger. A disabled endpoint answers 404, an IP
// outside AllowedIPs gets 403, and RequireAuth runs requireAuth first.
func SwaggerProtection(cfg SwaggerConfig, requireAuth gin.HandlerFunc) gin.HandlerFunc {
	nets := parseAllowedNets(cfg.AllowedIPs)

	return func(c *gin.Context) {
		requestID := c.GetString(RequestIDKey)

		if !cfg.Enabled {
			c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeNotFound),
				dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "API documentation is not available", requestID))
			return
		}

		if len(nets) > 0 && !ipAllowed(net.ParseIP(c.ClientIP()), nets) {
			c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeForbidden),
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Access to API documentation is restricted", requestID))
			return
		}

		if cfg.RequireAuth && requireAuth != nil {
			requireAuth(c)
			if c.IsAborted() {
				return
			}
		}

		c.Next()
	}
}

// parseAllowedNets turns IPs and CIDRs into networks; a bare IP becomes a
// single-address network. Unparseable entries are skipped.
func parseAllowedNets(entries []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				continue
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		if _, network, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, network)
		}
	}
	return nets
}

func ipAllowed(ip net.IP, nets []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, network := range nets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
