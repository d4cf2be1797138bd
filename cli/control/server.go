package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"newsflash/app"
	"newsflash/domain"
	"newsflash/internal/logger"
)

var ErrAlreadyRunning = errors.New("already running")

// TryListen tries to bind the control address. If it's already in use, we assume an instance is running.
func TryListen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ErrAlreadyRunning
	}
	return ln, nil
}

const shutdownTimeout = 5 * time.Second

// Status is the body of GET /status.
type Status struct {
	Running    bool   `json:"running"`
	Interval   string `json:"interval"`
	Items      int    `json:"items"`
	LastUpdate string `json:"lastUpdate"`
}

type Server struct {
	sched   domain.Scheduler
	log     logger.Logger
	engine  *gin.Engine
	metrics http.Handler
}

// NewServer builds the control API around sched. metrics may be nil.
func NewServer(sched domain.Scheduler, metrics http.Handler, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{sched: sched, log: log.With(logger.String("component", "control")), metrics: metrics}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/status", s.handleStatus)
	r.GET("/news", s.handleNews)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
	r.POST("/start", s.lifecycle(sched.Start))
	r.POST("/stop", s.lifecycle(sched.Stop))
	r.POST("/refresh", s.lifecycle(sched.Refresh))
	r.POST("/clear-cache", s.lifecycle(sched.ClearCache))
	r.POST("/set-interval", s.handleSetInterval)
	s.engine = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// Serve handles requests on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) lifecycle(op func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := op(c.Request.Context()); err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "running": s.sched.Running()})
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	items, last := s.sched.Snapshot()
	c.JSON(http.StatusOK, Status{
		Running:    s.sched.Running(),
		Interval:   s.sched.CurrentInterval().String(),
		Items:      len(items),
		LastUpdate: last,
	})
}

func (s *Server) handleNews(c *gin.Context) {
	items, last := s.sched.Snapshot()
	if raw := c.Query("num"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid num: %q", raw)})
			return
		}
		if n < len(items) {
			items = items[:n]
		}
	}
	if items == nil {
		items = []domain.NewsItem{}
	}
	c.JSON(http.StatusOK, domain.CacheData{Items: items, LastUpdate: last})
}

func (s *Server) handleSetInterval(c *gin.Context) {
	var req struct {
		Duration string `json:"duration" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	d, err := time.ParseDuration(req.Duration)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid duration: %v", err)})
		return
	}

	old := s.sched.CurrentInterval()
	if err := s.sched.SetInterval(d); err != nil {
		s.fail(c, err)
		return
	}
	s.log.Info("interval changed", logger.Duration("old", old), logger.Duration("new", d))
	c.JSON(http.StatusOK, gin.H{"ok": true, "old": old.String(), "new": d.String()})
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrAlreadyRunning), errors.Is(err, app.ErrNotRunning):
		return http.StatusConflict
	case errors.Is(err, app.ErrDisposed):
		return http.StatusGone
	case errors.Is(err, app.ErrInvalidInterval):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger writes one structured entry per request.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.Strings("errors", c.Errors.Errors()))
			log.Warn("control request failed", fields...)
			return
		}
		log.Debug("control request", fields...)
	}
}
