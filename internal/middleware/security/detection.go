package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"

	"rumclub/internal/log"
)

// Detector flags requests that look like scans or injection attempts. It
// only reports them; blocking is left to the auth gate and the rate limiter.
type Detector struct {
	suspicious     int64
	trustedProxies []*net.IPNet
}

// NewDetector trusts forwarding headers from loopback and private networks.
func NewDetector() *Detector {
	return &Detector{
		trustedProxies: []*net.IPNet{
			parseCIDR("127.0.0.0/8"),    // localhost
			parseCIDR("10.0.0.0/8"),     // private networks
			parseCIDR("172.16.0.0/12"),  // private networks
			parseCIDR("192.168.0.0/16"), // private networks
		},
	}
}

// parseCIDR is a helper to parse CIDR during initialization
func parseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}
	suspiciousAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan",
	}
	unusualMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}
)

// DetectSuspiciousRequest reports the first reason a request looks hostile,
// or "" when it does not.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) string {
	reason := detect(r)
	if reason != "" {
		atomic.AddInt64(&d.suspicious, 1)
	}
	return reason
}

func detect(r *http.Request) string {
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(path, pattern) || strings.Contains(query, pattern) {
			return "pattern " + pattern
		}
	}

	userAgent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, agent := range suspiciousAgents {
		if strings.Contains(userAgent, agent) {
			return "agent " + agent
		}
	}

	for _, method := range unusualMethods {
		if r.Method == method {
			return "method " + method
		}
	}

	// Excessively long URLs (possible overflow attempt)
	if len(r.URL.String()) > 2048 {
		return "long url"
	}

	// More than 5 proxy hops suggests forged forwarding headers
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return "forwarding chain"
	}
	return ""
}

// ExtractClientIP extracts the real client IP, validating forwarded headers
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil {
		return directIP
	}

	// Forwarded headers are only honored from a trusted proxy
	if d.isTrustedProxy(parsedDirectIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(clientIP) != nil {
				return clientIP
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// Suspicious returns how many requests were flagged so far.
func (d *Detector) Suspicious() int64 {
	return atomic.LoadInt64(&d.suspicious)
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}

// Middleware logs flagged requests at WARN and lets them through.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := d.DetectSuspiciousRequest(r); reason != "" {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).
				WarnContext(r.Context(), "Suspicious request",
					"reason", reason,
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path,
					log.FieldClientIP, d.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}
