package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/prashantkr001/catalog-go/internal/pkg/logger"
)

// MwAccessLog logs one line per request. It is only enabled in development/CI,
// hence the terminal colors.
func MwAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		msg := logger.Cyan(fmt.Sprintf("%s %s", r.Method, r.URL.Path))
		status := logger.Green("[http]::✔")
		if ww.Status() >= http.StatusBadRequest {
			status = logger.Red(fmt.Sprintf("[http]::%d", ww.Status()))
		}

		logger.Info(fmt.Sprintf(
			"%s %s %s %s",
			status, time.Now().Format(time.RFC3339Nano), msg, time.Since(start),
		))
	})
}
