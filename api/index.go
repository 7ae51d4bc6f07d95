package handler

import (
	"net/http"
	"sync"

	"retreat/config"
	"retreat/di"
	"retreat/shared/logger"
)

var (
	once    sync.Once
	service http.Handler
)

// Handler is the serverless entrypoint; the dependency graph is built on the first request and reused.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	once.Do(func() {
		cfg := config.Get()

		logger.Init(cfg)

		service = di.InitializeService()
	})

	service.ServeHTTP(w, r)
}
