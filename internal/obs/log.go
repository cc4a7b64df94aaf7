// Package obs holds shared observability plumbing: the structured JSON logger
// and Prometheus metrics for the HTTP layer.
package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared structured logger used across the service.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest emits a structured JSON log line with common HTTP fields.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"ts":"error","level":"error","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}

// Warn emits a single structured warning line.
func Warn(msg string, fields map[string]any) {
	emit("warn", msg, fields)
}

// Error emits a single structured error line.
func Error(msg string, fields map[string]any) {
	emit("error", msg, fields)
}

// Info emits a single structured info line.
func Info(msg string, fields map[string]any) {
	emit("info", msg, fields)
}

func emit(level, msg string, fields map[string]any) {
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}
	for k, v := range fields {
		entry[k] = v
	}
	LogRequest(entry)
}
