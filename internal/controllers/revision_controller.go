package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"wikistats/internal/providers"
	"wikistats/internal/services"
	"wikistats/internal/wikipedia"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 1 << 20 // 1 MB

const dateLayout = "2006-01-02"

type RevisionController struct {
	logger     providers.Logger
	service    services.RevisionServiceInterface
	generation services.GenerationServiceInterface
	cache      providers.CacheProviderInterface
}

func NewRevisionController(logger providers.Logger, service services.RevisionServiceInterface, generation services.GenerationServiceInterface, cache providers.CacheProviderInterface) *RevisionController {
	return &RevisionController{
		logger:     logger,
		service:    service,
		generation: generation,
		cache:      cache,
	}
}

type errorResponse struct {
	Error           string `json:"error"`
	CooldownSeconds int64  `json:"cooldownSeconds,omitempty"`
}

func getLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return services.DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer, got %q", raw)
	}
	return limit, nil
}

func getDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%s must be formatted as %s, got %q", name, dateLayout, raw)
	}
	// the upper bound covers the whole named day
	if name == "to" {
		parsed = parsed.Add(24*time.Hour - time.Second)
	}
	return &parsed, nil
}

func (rc *RevisionController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := rc.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		rc.writeError(w, err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	rc.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// writeError maps engine failures onto API responses. Caller mistakes
// come back as 400, an active rate-limit cooldown as 503 with a
// Retry-After hint, upstream failures keep the status the client
// already assigned them.
func (rc *RevisionController) writeError(w http.ResponseWriter, err error) {
	var rateLimitErr *wikipedia.RateLimitError
	var statusErr *wikipedia.StatusError

	switch {
	case errors.Is(err, wikipedia.ErrInvalidArgument):
		rc.writeJSONError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &rateLimitErr):
		seconds := int64(rateLimitErr.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
		rc.writeJSONError(w, http.StatusServiceUnavailable, errorResponse{
			Error:           "rate limited by upstream, try again later",
			CooldownSeconds: seconds,
		})
	case errors.As(err, &statusErr):
		rc.writeJSONError(w, statusErr.Code, errorResponse{Error: statusErr.Message})
	default:
		rc.logger.Errorf(providers.TypeApp, "Unhandled API error: %s", err)
		rc.writeJSONError(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (rc *RevisionController) writeJSONError(w http.ResponseWriter, code int, resp errorResponse) {
	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(gson)
}

func (rc *RevisionController) GetRevisions(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	cursor := r.URL.Query().Get("cursor")

	limit, err := getLimit(r)
	if err != nil {
		rc.writeJSONError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	from, err := getDate(r, "from")
	if err != nil {
		rc.writeJSONError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	to, err := getDate(r, "to")
	if err != nil {
		rc.writeJSONError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	cacheKey := fmt.Sprintf("series:%s|%d|%s|%s|%s", title, limit, r.URL.Query().Get("from"), r.URL.Query().Get("to"), cursor)
	rc.serveFromCacheOrCompute(w, cacheKey, func() (any, error) {
		return rc.service.GetSeries(r.Context(), title, limit, from, to, cursor)
	})
}

func (rc *RevisionController) GetPreview(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")

	rc.serveFromCacheOrCompute(w, "preview:"+title, func() (any, error) {
		return rc.service.GetPreview(r.Context(), title)
	})
}

func (rc *RevisionController) GetStats(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")

	interval := services.IntervalDaily
	if raw := r.URL.Query().Get("interval"); raw != "" {
		parsed, ok := services.ParseInterval(raw)
		if !ok {
			rc.writeJSONError(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown interval %q", raw)})
			return
		}
		interval = parsed
	}

	limit, err := getLimit(r)
	if err != nil {
		rc.writeJSONError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	cacheKey := fmt.Sprintf("stats:%s|%s|%d", title, interval, limit)
	rc.serveFromCacheOrCompute(w, cacheKey, func() (any, error) {
		return rc.service.GetStats(r.Context(), title, interval, limit)
	})
}

type generateRequest struct {
	Title string `json:"title"`
	Limit int    `json:"limit"`
}

func (rc *RevisionController) Generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload generateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		rc.writeJSONError(w, http.StatusBadRequest, errorResponse{Error: "request body must be JSON with a title field"})
		return
	}
	if payload.Limit == 0 {
		payload.Limit = services.DefaultLimit
	}

	resp, err := rc.generation.Generate(r.Context(), payload.Title, payload.Limit)
	if err != nil {
		rc.writeError(w, err)
		return
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(gson)
}
