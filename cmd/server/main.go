package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AzmayenSabil/Missing-Link-sub001/internal/api"
	"github.com/AzmayenSabil/Missing-Link-sub001/internal/providers/llm"
	"github.com/AzmayenSabil/Missing-Link-sub001/internal/run"
)

func main() {
	_ = godotenv.Load()

	logger := buildLogger()
	defer logger.Sync()

	outputDir := os.Getenv("OUTPUT_DIR")
	if outputDir == "" {
		outputDir = "output"
	}

	client := llm.NewFromEnv()
	invoker := llm.NewInvoker(client, logger)
	pipeline := run.NewPipeline(run.NewMemoryStore(), invoker, outputDir, logger)

	mux := http.NewServeMux()
	api.NewServer(pipeline, logger).RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}
	logger.Info("server listening",
		zap.String("addr", addr),
		zap.String("engine", pipeline.Engine()),
		zap.String("outputDir", outputDir))
	if err := http.ListenAndServe(addr, cors(mux)); err != nil {
		logger.Fatal("listen failed", zap.Error(err))
	}
}

func buildLogger() *zap.Logger {
	if os.Getenv("DEBUG") == "1" {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}

// simple CORS middleware for local dev
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
