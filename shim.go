package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// shimToolName is the only tool the HTTP shim knows how to invoke. The stdio
// registry carries the full catalogue; the shim deliberately does not. This
// asymmetry matches the deployed behaviour and is kept on purpose.
const shimToolName = "fetch_usgs_data"

// UnknownToolError reports an invocation of a tool the shim does not expose.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// ===== infra helpers =====

type MiddlewareFunc func(http.Handler) http.Handler

func chainMiddleware(h http.Handler, middlewares ...MiddlewareFunc) http.Handler {
	for _, mw := range middlewares {
		h = mw(h)
	}
	return h
}

func loggerMiddleware(prefix string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("<%s> %s %s", prefix, r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

func recoverMiddleware(prefix string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Printf("<%s> panic: %v", prefix, err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ===== discovery document =====

// shimToolDescriptors is the discovery document returned by GET /mcp. Built
// once from the catalogue at process start and treated as read-only. The
// legacy format switch is not part of the shim contract and is excluded.
var shimToolDescriptors = buildShimToolDescriptors()

func buildShimToolDescriptors() []map[string]any {
	spec, ok := toolSpecByName(shimToolName)
	if !ok {
		return nil
	}
	params := make(map[string]any, len(spec.params))
	for _, p := range spec.params {
		if p.name == "format" {
			continue
		}
		params[p.name] = p.description
	}
	return []map[string]any{
		{
			"name":        spec.name,
			"description": spec.description,
			"parameters":  params,
		},
	}
}

// ===== handlers =====

type shimServer struct {
	client *upstreamClient
}

func newShimHandler(client *upstreamClient) http.Handler {
	s := &shimServer{client: client}
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleMCP)
	mux.HandleFunc("/mcp/", s.handleMCP)
	return chainMiddleware(mux, recoverMiddleware("shim"), loggerMiddleware("shim"))
}

func (s *shimServer) handleMCP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("mcp-session-id", uuid.New().String())
		_ = json.NewEncoder(w).Encode(map[string]any{"tools": shimToolDescriptors})

	case http.MethodPost:
		s.handleInvoke(w, r)

	case http.MethodDelete:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})

	case http.MethodOptions:
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)

	default:
		w.Header().Set("Allow", "GET, POST, DELETE, OPTIONS")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

type shimInvocation struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

func (s *shimServer) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req shimInvocation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("decode request body: %w", err))
		return
	}

	result, err := s.executeTool(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
}

// executeTool runs fetch_usgs_data against the water services API. Empty
// optional parameters are omitted from the outbound query; a missing sites
// value is forwarded as-is and rejected by the upstream service.
func (s *shimServer) executeTool(ctx context.Context, req shimInvocation) (map[string]any, error) {
	if req.Tool != shimToolName {
		return nil, &UnknownToolError{Name: req.Tool}
	}

	query := url.Values{}
	query.Set("sites", stringParam(req.Parameters, "sites"))
	query.Set("format", "json")

	optional := map[string]string{
		"parameter_codes": "parameterCd",
		"start_date":      "startDT",
		"end_date":        "endDT",
		"period":          "period",
	}
	for name, queryKey := range optional {
		if v := stringParam(req.Parameters, name); v != "" {
			query.Set(queryKey, v)
		}
	}

	return s.client.getJSON(ctx, familyWaterServices, "", query)
}

// writeError collapses every error kind into a generic 500 carrying the
// error's string message.
func (s *shimServer) writeError(w http.ResponseWriter, err error) {
	log.Printf("<shim> invocation failed: %v", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func stringParam(params map[string]any, key string) string {
	v, _ := params[key].(string)
	return v
}

// ===== server lifecycle =====

// startShimServer serves the shim until ctx is cancelled, then shuts down
// gracefully.
func startShimServer(ctx context.Context, cfg Config, client *upstreamClient) error {
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: newShimHandler(client),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("<shim> listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("<shim> shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
