// Package server exposes address cache over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/bool64/ctxd"
	"github.com/gin-gonic/gin"
	"github.com/vearutop/addrcache"
)

// MaxTakeTimeout limits waiting time of take request.
const MaxTakeTimeout = time.Minute

// Options configures Server.
type Options struct {
	// APIToken enables bearer token check if not empty.
	APIToken string

	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger
}

// Server is an HTTP API of address cache.
type Server struct {
	cache *addrcache.AddressCache
	inv   *addrcache.Invalidator
	opts  Options
	log   ctxd.Logger
	r     *gin.Engine
	srv   *http.Server
}

type addressBody struct {
	Address string `json:"address" binding:"required"`
}

type entryBody struct {
	Address  string    `json:"address"`
	ExpireAt time.Time `json:"expireAt"`
	Expired  bool      `json:"expired"`
}

// New creates an instance of Server, inv is used for flush requests and can be nil.
func New(cache *addrcache.AddressCache, inv *addrcache.Invalidator, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cache: cache, inv: inv, opts: opts, log: opts.Logger, r: r}
	s.srv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if s.log == nil {
		s.log = ctxd.NoOpLogger{}
	}

	r.Use(s.logRequest)
	r.GET("/health", s.health)

	api := r.Group("/")
	api.Use(s.auth)
	{
		api.GET("/addresses", s.listAddresses)
		api.POST("/addresses", s.addAddress)
		api.DELETE("/addresses/:addr", s.removeAddress)
		api.GET("/addresses/peek", s.peekAddress)
		api.POST("/addresses/take", s.takeAddress)
		api.POST("/flush", s.flush)
	}

	return s
}

// Handler returns HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.r
}

// Start listens and serves HTTP API until Shutdown.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Shutdown gracefully stops server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) logRequest(c *gin.Context) {
	start := time.Now()

	c.Next()

	s.log.Debug(c.Request.Context(), "api request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"elapsed", time.Since(start).String(),
		"client", c.ClientIP())
}

func (s *Server) auth(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if s.opts.APIToken != "" && token != s.opts.APIToken {
		c.AbortWithStatus(http.StatusUnauthorized)

		return
	}

	c.Next()
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"items":  s.cache.Len(),
		"maxAge": s.cache.MaxAge().String(),
	})
}

func (s *Server) listAddresses(c *gin.Context) {
	elements := s.cache.Elements()
	res := make([]entryBody, 0, len(elements))

	for _, e := range elements {
		res = append(res, entryBody{
			Address:  e.Value().String(),
			ExpireAt: e.ExpireAt(),
			Expired:  e.IsExpired(),
		})
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) addAddress(c *gin.Context) {
	var body addressBody

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	addr, err := netip.ParseAddr(body.Address)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	added, err := s.cache.Add(c.Request.Context(), addr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	code := http.StatusOK
	if added {
		code = http.StatusCreated
	}

	c.JSON(code, gin.H{"address": addr.String(), "added": added})
}

func (s *Server) removeAddress(c *gin.Context) {
	addr, err := netip.ParseAddr(c.Param("addr"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if !s.cache.Remove(c.Request.Context(), addr) {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})

		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) peekAddress(c *gin.Context) {
	addr, ok := s.cache.Peek(c.Request.Context())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "cache is empty"})

		return
	}

	c.JSON(http.StatusOK, gin.H{"address": addr.String()})
}

// takeAddress waits for an address up to timeout query parameter, default and max is MaxTakeTimeout.
func (s *Server) takeAddress(c *gin.Context) {
	timeout := MaxTakeTimeout

	if t := c.Query("timeout"); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timeout: " + t})

			return
		}

		if d < timeout {
			timeout = d
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	addr, err := s.cache.Take(ctx)
	if err != nil {
		c.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{"address": addr.String()})
}

func (s *Server) flush(c *gin.Context) {
	if s.inv == nil {
		s.cache.RemoveAll()
		c.Status(http.StatusNoContent)

		return
	}

	err := s.inv.Invalidate()

	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, addrcache.ErrAlreadyInvalidated):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		s.log.Error(c.Request.Context(), "failed to flush cache", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
