package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// Pinger is implemented by every store backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// pingTimeout bounds a health probe independently of the request timeout.
const pingTimeout = 5 * time.Second

// Health is the body of GET /health/db.
type Health struct {
	Status    string     `json:"status"`
	Driver    string     `json:"driver"`
	LatencyMS float64    `json:"latency_ms"`
	Error     string     `json:"error,omitempty"`
	Pool      *PoolStats `json:"pool,omitempty"`
}

// PoolStats is a snapshot of pgxpool.Stat.
type PoolStats struct {
	TotalConns    int32  `json:"total_conns"`
	IdleConns     int32  `json:"idle_conns"`
	AcquiredConns int32  `json:"acquired_conns"`
	MaxConns      int32  `json:"max_conns"`
	AcquireCount  int64  `json:"acquire_count"`
	AcquireWait   string `json:"acquire_wait"`
}

func poolStats(pool *pgxpool.Pool) *PoolStats {
	s := pool.Stat()
	return &PoolStats{
		TotalConns:    s.TotalConns(),
		IdleConns:     s.IdleConns(),
		AcquiredConns: s.AcquiredConns(),
		MaxConns:      s.MaxConns(),
		AcquireCount:  s.AcquireCount(),
		AcquireWait:   s.AcquireDuration().String(),
	}
}

// Check pings store and reports the outcome with its round-trip latency.
func Check(ctx context.Context, driver string, store Pinger) Health {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	h := Health{Status: "healthy", Driver: driver}
	start := time.Now()
	err := store.Ping(ctx)
	h.LatencyMS = float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		h.Status = "unhealthy"
		h.Error = err.Error()
	}
	if pool, ok := store.(*pgxpool.Pool); ok {
		h.Pool = poolStats(pool)
	}
	return h
}

// HealthHandler serves Check as JSON, answering 503 when the store is down.
func HealthHandler(driver string, store Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := Check(c.Request().Context(), driver, store)
		code := http.StatusOK
		if h.Error != "" {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, h)
	}
}
