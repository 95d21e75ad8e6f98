package utils

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var hopByHop = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// Forwarder proxies gateway requests to a backend service, keeping the path.
type Forwarder struct {
	client *http.Client
	logger *zap.Logger
}

func NewForwarder(timeout time.Duration, logger *zap.Logger) *Forwarder {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Forwarder{client: &http.Client{Timeout: timeout}, logger: logger}
}

// To returns a handler forwarding to targetBase + the request path.
func (f *Forwarder) To(targetBase string) gin.HandlerFunc {
	targetBase = strings.TrimRight(targetBase, "/")
	return func(c *gin.Context) {
		f.forward(c, targetBase)
	}
}

func (f *Forwarder) forward(c *gin.Context, targetBase string) {
	targetURL := targetBase + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		targetURL += "?" + c.Request.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, c.Request.Body)
	if err != nil {
		f.logger.Error("Failed to create forward request", zap.String("url", targetURL), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create request"})
		return
	}
	req.ContentLength = c.Request.ContentLength

	for k, v := range c.Request.Header {
		if hopByHop[strings.ToLower(k)] || strings.HasPrefix(strings.ToLower(k), "x-user-") {
			continue
		}
		req.Header[k] = v
	}
	if rid := c.GetHeader(middleware.RequestIDHeader); rid != "" {
		req.Header.Set(middleware.RequestIDHeader, rid)
	} else if rid := c.Writer.Header().Get(middleware.RequestIDHeader); rid != "" {
		req.Header.Set(middleware.RequestIDHeader, rid)
	}

	// identity is only injected for authenticated routes
	if userID := middleware.GetUserID(c); userID > 0 {
		req.Header.Set(middleware.HeaderUserID, strconv.FormatInt(userID, 10))
		req.Header.Set(middleware.HeaderUserRole, strconv.Itoa(middleware.GetRole(c)))
		req.Header.Set("Authorization", "Bearer "+middleware.GetBearerToken(c))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("Failed to forward request",
			zap.String("method", c.Request.Method),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "service unreachable"})
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		lower := strings.ToLower(k)
		// CORS belongs to the gateway
		if strings.HasPrefix(lower, "access-control-") || hopByHop[lower] {
			continue
		}
		c.Header(k, strings.Join(v, ","))
	}
	c.Status(resp.StatusCode)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		f.logger.Warn("Failed to copy response body", zap.String("url", targetURL), zap.Error(err))
	}
}
