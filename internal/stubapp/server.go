// Package stubapp serves a local double of the card delivery form. It keeps
// the DOM contract and validation messages of the real application so the
// runner can be exercised without it.
package stubapp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/netology-qa/card-delivery-e2e/internal/booking"
	"github.com/netology-qa/card-delivery-e2e/internal/logging"
)

const apiPath = "/api/delivery/booking"

// Options configures the stub.
type Options struct {
	// Rules drives validation; a nil city list means DefaultCities.
	Rules Rules
	// Delay postpones successful responses, like the real backend does.
	Delay time.Duration
}

// Server is the stub HTTP application.
type Server struct {
	opts   Options
	page   *pongo2.Template
	engine *gin.Engine
	log    zerolog.Logger
}

// New builds the stub with its routes.
func New(opts Options) (*Server, error) {
	if opts.Rules.Cities == nil {
		opts.Rules.Cities = DefaultCities
	}
	tpl, err := pongo2.FromString(formPage)
	if err != nil {
		return nil, fmt.Errorf("failed to parse form page: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		opts:   opts,
		page:   tpl,
		engine: gin.New(),
		log:    logging.For("stubapp"),
	}
	s.engine.Use(gin.Recovery())
	s.engine.GET("/", s.handleForm)
	s.engine.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	s.engine.POST(apiPath, s.handleBooking)
	return s, nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) handleForm(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	err := s.page.ExecuteWriter(pongo2.Context{
		"title":        "Доставка карт",
		"submit_label": booking.SubmitLabel,
		"api_path":     apiPath,
		"default_date": booking.DateWithOffset(s.clock(), s.opts.Rules.MinOffsetDays),
	}, c.Writer)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to render form")
	}
}

func (s *Server) handleBooking(c *gin.Context) {
	var in booking.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if v, ok := s.opts.Rules.Validate(in); !ok {
		s.log.Debug().Str("field", string(v.Field)).Msg("booking rejected")
		c.JSON(http.StatusUnprocessableEntity, v)
		return
	}

	if s.opts.Delay > 0 {
		select {
		case <-time.After(s.opts.Delay):
		case <-c.Request.Context().Done():
			return
		}
	}
	s.log.Debug().Str("city", in.City).Str("date", in.Date).Msg("booking accepted")
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": booking.SuccessMessage(in.Date)})
}

func (s *Server) clock() booking.Clock {
	if s.opts.Rules.Now == nil {
		return booking.SystemClock
	}
	return s.opts.Rules.Now
}

// Serve listens on addr until ctx is cancelled. The bound address is sent
// on ready once the listener is up; ready may be nil.
func (s *Server) Serve(ctx context.Context, addr string, ready chan<- string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("stub application listening")
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
