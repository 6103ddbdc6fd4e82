package httpx

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"fontier-admin/internal/httpx/kit"
	"fontier-admin/internal/logx"
	"fontier-admin/pkg"
)

var httpxLogger = logx.GetScope("httpx")

// RegisterCommonMiddlewares registers recover, request id, cors, timing headers and a
// structured access log.
func RegisterCommonMiddlewares(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		ExposeHeaders: "X-Request-ID, X-Response-Time, X-Query-Status, X-Query-Error, Retry-After",
	}))
	app.Use(accessLog)
}

// accessLog renders handler errors itself so the logged status and the timing headers
// match what the client receives.
func accessLog(c *fiber.Ctx) error {
	start := time.Now()
	if err := c.Next(); err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	latency := time.Since(start)
	c.Set("X-Response-Time", pkg.SmartDurationFormat(latency))
	c.Set("Server-Timing", "app;dur="+formatMillis(latency))

	status := c.Response().StatusCode()
	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.OriginalURL()),
		zap.Int("status", status),
		zap.Int64("latency_ms", latency.Milliseconds()),
		zap.String("ip", c.IP()),
		zap.String("ua", c.Get("User-Agent")),
		zap.String("request_id", kit.RequestID(c)),
	}
	if status >= fiber.StatusInternalServerError {
		httpxLogger.Warn("access", fields...)
	} else {
		httpxLogger.Info("access", fields...)
	}
	return nil
}

// formatMillis renders d in milliseconds with microsecond precision, as Server-Timing expects.
func formatMillis(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Microseconds())/1000, 'f', 3, 64)
}
