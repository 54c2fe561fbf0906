package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"qs-service/api"
	_ "qs-service/docs"
	"qs-service/logger"
	"qs-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

var (
	PORT         = 80
	BASE_CONTEXT = ""
)

func init() {
	if val := os.Getenv("LISTEN_PORT"); val != "" {
		PORT, _ = strconv.Atoi(val)
	}

	if val := os.Getenv("BASE_CONTEXT"); val != "" {
		BASE_CONTEXT = val
	}
}

// @title QS Score Service API
// @version 1.0
// @description Backend service for the inclusion management platform QS Score: per-area score computation, company-wide recalculation and risk map data
// @BasePath /
func main() {
	logger.InitLogger()
	service.Init()

	mux := chi.NewRouter()

	// When BASE_CONTEXT is set, mount everything under that path
	if BASE_CONTEXT != "" {
		mux.Route(BASE_CONTEXT, func(r chi.Router) {
			subMux := r.(*chi.Mux)
			api.InitRoute(subMux)
			r.Handle("/metrics", promhttp.Handler())
			r.Handle("/swagger*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux)
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/swagger*", httpSwagger.WrapHandler)
	}

	if err := http.ListenAndServe(":"+strconv.Itoa(PORT), mux); err != nil && err != http.ErrServerClosed {
		log.Fatalf("error: %v", err)
	}
}
