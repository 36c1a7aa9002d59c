package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/go-linkbio/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-linkbio/pkg/app"
	"github.com/wadjakorntonsri/go-linkbio/pkg/config"
	"github.com/wadjakorntonsri/go-linkbio/pkg/logger"
)

var mux http.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	_ = logger.Init(logger.Options{Level: cfg.LogLevel, Format: "json", Output: "stdout"})

	// Note: On Vercel a local sqlite file is ephemeral; point DATABASE_URL at
	// MongoDB or Turso.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application, err := app.New(ctx, cfg)
	if err != nil {
		panic(err)
	}

	mux = handler.NewRouter(cfg, application.Handler)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
