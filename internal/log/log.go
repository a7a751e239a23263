package log

import (
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
)

type entry struct {
	TS        string         `json:"ts"`
	Level     string         `json:"level"`
	ReqID     string         `json:"req_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	Method    string         `json:"method,omitempty"`
	Path      string         `json:"path,omitempty"`
	Action    string         `json:"action,omitempty"`
	Status    int            `json:"status,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func write(level string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	emit(entry{Level: level, Action: action, Fields: fields}, c, err)
}

func emit(e entry, c *fiber.Ctx, err error) {
	e.TS = time.Now().UTC().Format(time.RFC3339)
	if c != nil {
		e.IP = c.IP()
		e.Method = c.Method()
		e.Path = c.Path()
		e.Status = c.Response().StatusCode()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e.ReqID = rid
		}
	}
	if err != nil {
		e.Err = err.Error()
	}
	b, _ := json.Marshal(e)
	log.Println(string(b))
}

func Info(c *fiber.Ctx, action string, fields map[string]any) { write("info", c, action, nil, fields) }
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write("audit", c, action, nil, fields)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write("warn", c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write("error", c, action, err, fields)
}

// Event logs outside of a request, e.g. from the API client or a store.
func Event(level, action string, err error, fields map[string]any) {
	write(level, nil, action, err, fields)
}

var debug atomic.Bool

// SetDebug turns Debug output on or off. It is off until set.
func SetDebug(on bool) { debug.Store(on) }

func Debug(action string, fields map[string]any) {
	if debug.Load() {
		write("debug", nil, action, nil, fields)
	}
}
func Warn(action string, err error, fields map[string]any) {
	write("warn", nil, action, err, fields)
}

// Timed logs a completed outbound call with its duration.
func Timed(action string, d time.Duration, status int, fields map[string]any) {
	emit(entry{Level: "info", Action: action, Status: status, LatencyMs: d.Milliseconds(), Fields: fields}, nil, nil)
}
