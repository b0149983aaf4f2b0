// Package main provides the co-mindforest sync server: a poll-based
// room synchronization backend for the shared mind-map editor.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/weichu2002/co-mindforest2/cmd/server/handlers"
	"github.com/weichu2002/co-mindforest2/internal/kv"
	"github.com/weichu2002/co-mindforest2/internal/logging"
	"github.com/weichu2002/co-mindforest2/internal/room"
)

func main() {
	logging.Init(os.Stdout, logging.ParseLevel(os.Getenv("LOG_LEVEL")))

	store, err := openStore()
	if err != nil {
		logging.Error("failed to open backing store", err)
		os.Exit(1)
	}
	defer store.Close()

	cfg := room.Config{
		SharedSnapshot: os.Getenv("SHARED_SNAPSHOT") == "1",
	}
	sync := room.NewSynchronizer(room.NewRepository(store, 0), nil, cfg)
	syncHandler := handlers.NewSyncHandler(sync)

	router := mux.NewRouter()
	router.HandleFunc("/api/sync", syncHandler.HandleSync).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/health", handlers.HandleHealth).Methods(http.MethodGet)
	router.Use(corsMiddleware)

	port := envOr("PORT", "8090")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	logging.Info("sync server starting", map[string]interface{}{
		"port":     port,
		"provider": envOr("STORE_PROVIDER", "memory"),
	})
	if err := server.ListenAndServe(); err != nil {
		logging.Error("server stopped", err)
		os.Exit(1)
	}
}

// openStore selects the key-value provider from the environment.
func openStore() (kv.Store, error) {
	provider := envOr("STORE_PROVIDER", "memory")
	switch provider {
	case "memory":
		return kv.NewMemoryStore(), nil
	case "sqlite":
		return kv.OpenSQLiteStore(envOr("DB_PATH", "./data"))
	case "pebble":
		return kv.OpenPebbleStore(envOr("PEBBLE_PATH", "./data/pebble"))
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return kv.NewRedisStore(ctx, envOr("REDIS_ADDR", "localhost:6379"))
	default:
		return nil, fmt.Errorf("unknown STORE_PROVIDER %q", provider)
	}
}

// envOr returns the environment value or a fallback default.
func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// corsMiddleware allows the browser editor to call from any origin.
// Rooms carry no credentials, so a permissive policy is acceptable.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
