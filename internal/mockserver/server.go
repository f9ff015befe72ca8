// Package mockserver reproduces the two read-only endpoints rco consumes so
// the client can be exercised end to end without the real provider.
package mockserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jeovahfialho/rco-cli/pkg/logger"
)

const (
	OpportunitiesPath = "/opportunities/__data.json"
	PricesPath        = "/api/assets/:ticker/history"
	HealthPath        = "/health"
	MetricsPath       = "/metrics"
)

type failure struct {
	status int
	body   string
}

type Server struct {
	mu sync.Mutex

	app *fiber.App

	opportunities []byte
	prices        map[string][]byte
	fail          *failure

	calls      int
	lastPath   string
	lastQuery  url.Values
	lastCookie string
}

func New() *Server {
	s := &Server{
		prices:        make(map[string][]byte),
		opportunities: []byte("[]"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "rco mock api",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestID)
	app.Use(instrument)

	// Outside the recorded, cookie-protected surface.
	app.Get(HealthPath, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(s.record)
	app.Use(s.requireCookie)
	app.Get(OpportunitiesPath, s.handleOpportunities)
	app.Get(PricesPath, s.handlePrices)

	s.app = app
	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Handler exposes the fiber app as a net/http handler for httptest.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) SetOpportunities(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opportunities = body
}

func (s *Server) SetPrices(ticker string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[ticker] = body
}

// FailWith makes every following request answer status with body.
func (s *Server) FailWith(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = &failure{status: status, body: body}
}

func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Server) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPath
}

func (s *Server) LastQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

func (s *Server) LastCookie() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCookie
}

// LoadFixtures reads opportunities.json and prices/<TICKER>.json from dir.
// Missing files are skipped.
func (s *Server) LoadFixtures(dir string) error {
	body, err := os.ReadFile(filepath.Join(dir, "opportunities.json"))
	switch {
	case err == nil:
		s.SetOpportunities(body)
	case !os.IsNotExist(err):
		return fmt.Errorf("erro ao ler oportunidades: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "prices", "*.json"))
	if err != nil {
		return err
	}
	for _, file := range files {
		body, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("erro ao ler %s: %w", file, err)
		}
		ticker := strings.TrimSuffix(filepath.Base(file), ".json")
		s.SetPrices(ticker, body)
	}

	logger.Info("fixtures carregadas",
		zap.String("dir", dir),
		zap.Int("tickers", len(files)))
	return nil
}

func (s *Server) record(c *fiber.Ctx) error {
	query := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		query.Add(string(key), string(value))
	})

	s.mu.Lock()
	s.calls++
	s.lastPath = strings.Clone(c.Path())
	s.lastQuery = query
	s.lastCookie = strings.Clone(c.Get(fiber.HeaderCookie))
	fail := s.fail
	s.mu.Unlock()

	if fail != nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fail.status).SendString(fail.body)
	}
	return c.Next()
}

func (s *Server) requireCookie(c *fiber.Ctx) error {
	if strings.TrimSpace(c.Get(fiber.HeaderCookie)) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}
	return c.Next()
}

func (s *Server) handleOpportunities(c *fiber.Ctx) error {
	s.mu.Lock()
	body := s.opportunities
	s.mu.Unlock()

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

func (s *Server) handlePrices(c *fiber.Ctx) error {
	ticker := c.Params("ticker")

	s.mu.Lock()
	body, ok := s.prices[ticker]
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("asset %s not found", ticker),
		})
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid limit",
			})
		}
		body = truncateDates(body, limit)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// truncateDates applies the provider-side limit to a {"dates": [...]} body.
// Other shapes are served untouched.
func truncateDates(body []byte, limit int) []byte {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return body
	}
	var dates []json.RawMessage
	if err := json.Unmarshal(payload["dates"], &dates); err != nil {
		return body
	}
	if len(dates) <= limit {
		return body
	}

	truncated, err := json.Marshal(dates[:limit])
	if err != nil {
		return body
	}
	payload["dates"] = truncated

	out, err := json.Marshal(payload)
	if err != nil {
		return body
	}
	return out
}
