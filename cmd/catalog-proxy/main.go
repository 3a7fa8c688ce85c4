// Command catalog-proxy fronts the movie review CMS with the resilient
// client and query cache, exposing a small JSON API plus health and
// Prometheus metrics endpoints.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/showdeck/catalog-client/internal/config"
	"github.com/showdeck/catalog-client/pkg/cache"
	"github.com/showdeck/catalog-client/pkg/catalog"
	"github.com/showdeck/catalog-client/pkg/client"
	"github.com/showdeck/catalog-client/pkg/logging"
	"github.com/showdeck/catalog-client/pkg/notify"
	"github.com/showdeck/catalog-client/pkg/query"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		fallback := logging.NewLogger("catalog-proxy")
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
	}).With().Str("component", "catalog-proxy").Logger()

	backend, err := buildCacheBackend(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to set up cache backend")
	}

	notifier := notify.NewCenter()
	go logNotifications(notifier, logger)

	cmsClient, err := client.New(client.Config{
		BaseURL:      cfg.APIURL,
		Token:        cfg.APIToken,
		MaxRetries:   cfg.Retry.MaxRetries,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
		Multiplier:   cfg.Retry.Multiplier,
		Notifier:     notifier,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create CMS client")
	}

	store := query.NewStore(backend, query.WithStaleTime(cfg.Cache.TTL))
	cached := catalog.NewCached(catalog.New(cmsClient), store)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      newRouter(cached, notifier),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.ListenAddr).
			Str("api_url", cfg.APIURL).
			Msg("Starting catalog proxy")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// buildCacheBackend selects the value cache: Redis when configured,
// otherwise the in-process memory store.
func buildCacheBackend(cfg *config.Config, logger zerolog.Logger) (cache.Store, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.Cache.Capacity), nil
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis cache backend")
	return cache.NewRedis(redisClient), nil
}

// logNotifications bridges user-facing notifications into the log.
func logNotifications(notifier *notify.Center, logger zerolog.Logger) {
	for ev := range notifier.Subscribe() {
		if ev.Type != notify.EventPublished {
			continue
		}
		event := logger.Info()
		if ev.Notification.Kind == notify.KindError {
			event = logger.Warn()
		}
		event.
			Str("kind", string(ev.Notification.Kind)).
			Str("title", ev.Notification.Title).
			Str("message", ev.Notification.Message).
			Msg("Notification")
	}
}

// router serves the catalog API over the cached service.
type router struct {
	cached   *catalog.CachedService
	notifier *notify.Center

	mu        sync.Mutex
	paginated map[string]*query.Infinite[catalog.Show]
}

func newRouter(cached *catalog.CachedService, notifier *notify.Center) http.Handler {
	rt := &router{
		cached:    cached,
		notifier:  notifier,
		paginated: make(map[string]*query.Infinite[catalog.Show]),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", rt.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /catalog/categories/{slug}", rt.handleCategories)
	mux.HandleFunc("GET /catalog/categories/{slug}/shows", rt.handleCategoryShows)
	mux.HandleFunc("GET /catalog/shows/{id}", rt.handleShow)
	mux.HandleFunc("GET /catalog/shows/{id}/reviews", rt.handleReviews)
	mux.HandleFunc("POST /catalog/shows/{id}/reviews", rt.handleCreateReview)
	return mux
}

func (rt *router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"loading": rt.notifier.IsLoading(),
	})
}

func (rt *router) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := rt.cached.CategoryCollection(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": categories})
}

// handleCategoryShows serves one page of a category listing. Pages are
// fetched incrementally and kept; asking for page N fills pages up to N.
func (rt *router) handleCategoryShows(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("slug")
	pageIndex := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid page"})
			return
		}
		pageIndex = parsed - 1
	}

	// Replace a sequence that aged past the staleness horizon so paginated
	// listings revalidate like the unpaged endpoints do.
	rt.mu.Lock()
	inf, ok := rt.paginated[categoryID]
	if !ok || (inf.Stale() && !inf.IsFetchingNext()) {
		inf = rt.cached.CategoryShowsPaginated(categoryID)
		rt.paginated[categoryID] = inf
	}
	rt.mu.Unlock()

	if err := inf.Load(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	for len(inf.Pages()) <= pageIndex && inf.HasNext() {
		if err := inf.FetchNext(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}

	pages := inf.Pages()
	if pageIndex >= len(pages) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "page out of range"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": pages[pageIndex]})
}

func (rt *router) handleShow(w http.ResponseWriter, r *http.Request) {
	show, err := rt.cached.Show(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": show})
}

func (rt *router) handleReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := rt.cached.Reviews(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": reviews})
}

func (rt *router) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var review catalog.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid body"})
		return
	}
	review.ShowID = r.PathValue("id")

	created, err := rt.cached.SubmitReview(r.Context(), review)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": created})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps typed client errors onto proxy responses. Only the
// user-facing message leaves the process.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway

	var apiErr *client.APIError
	var netErr *client.NetworkError
	switch {
	case client.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	case errors.As(err, &netErr):
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": netErr.Message})
		return
	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			status = apiErr.StatusCode
		case apiErr.StatusCode == 0:
			// Local errors (validation, empty create echo) carry no
			// upstream status.
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]any{"error": apiErr.Message})
		return
	}
	writeJSON(w, status, map[string]any{"error": "Something went wrong"})
}
