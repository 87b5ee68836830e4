// Package event answers API Gateway proxy events with the same routes
// as the HTTP server. The Lambda runtime owns concurrency; each event
// is handled in isolation against a store opened once per container.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/inodb/chr21-gene-api/internal/gene"
	"github.com/inodb/chr21-gene-api/internal/query"
)

const welcomeMessage = "Welcome to Chromosome 21 Gene API"

// messageBody is the JSON shape of event-surface message responses.
type messageBody struct {
	Message string `json:"message"`
}

// Handler routes API Gateway proxy events into the query engine.
type Handler struct {
	engine *query.Engine
	logger *zap.Logger
}

// NewHandler creates a handler over the given query engine.
func NewHandler(engine *query.Engine) *Handler {
	return &Handler{engine: engine, logger: zap.NewNop()}
}

// SetLogger sets the logger for event diagnostics.
func (h *Handler) SetLogger(l *zap.Logger) {
	h.logger = l
}

// Handle answers one proxy event. Only GET is supported; routing is by
// path segment after stripping any deployment stage prefix.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != http.MethodGet {
		return respondMessage(http.StatusMethodNotAllowed, "method not allowed"), nil
	}

	segs := pathSegments(req)
	switch {
	case len(segs) == 0:
		return respond(http.StatusOK, messageBody{Message: welcomeMessage}), nil
	case len(segs) == 1 && segs[0] == "genes":
		return h.handleList(ctx, req.QueryStringParameters), nil
	case len(segs) == 2 && segs[0] == "genes" && segs[1] != "by-name":
		return h.handleGetByID(ctx, segs[1]), nil
	case len(segs) == 3 && segs[0] == "genes" && segs[1] == "by-name":
		return h.handleGetByName(ctx, segs[2]), nil
	default:
		return respondMessage(http.StatusNotFound, "not found"), nil
	}
}

func (h *Handler) handleList(ctx context.Context, params map[string]string) events.APIGatewayProxyResponse {
	page, err := intParam(params, "page", query.DefaultPage)
	if err != nil {
		return respondMessage(http.StatusBadRequest, err.Error())
	}
	pageSize, err := intParam(params, "page_size", query.DefaultPageSize)
	if err != nil {
		return respondMessage(http.StatusBadRequest, err.Error())
	}

	res, err := h.engine.List(ctx, query.ListParams{
		Page:       page,
		PageSize:   pageSize,
		Chromosome: params["chromosome"],
		GeneType:   params["gene_type"],
		Search:     params["search"],
	})
	if err != nil {
		return h.engineError(err)
	}
	return respond(http.StatusOK, res)
}

func (h *Handler) handleGetByID(ctx context.Context, id string) events.APIGatewayProxyResponse {
	g, err := h.engine.GetByID(ctx, id)
	if err != nil {
		return h.engineError(err)
	}
	return respond(http.StatusOK, g)
}

func (h *Handler) handleGetByName(ctx context.Context, name string) events.APIGatewayProxyResponse {
	g, err := h.engine.GetByName(ctx, name)
	if err != nil {
		return h.engineError(err)
	}
	return respond(http.StatusOK, g)
}

func (h *Handler) engineError(err error) events.APIGatewayProxyResponse {
	switch {
	case errors.Is(err, gene.ErrNotFound):
		return respondMessage(http.StatusNotFound, "Gene not found")
	case errors.Is(err, query.ErrInvalidArgument):
		return respondMessage(http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("event failed", zap.Error(err))
		return respondMessage(http.StatusInternalServerError, "internal server error")
	}
}

// pathSegments extracts the non-empty, URL-decoded path segments from
// the event, preferring a proxy path parameter over the raw path and
// dropping a leading deployment stage segment when present.
func pathSegments(req events.APIGatewayProxyRequest) []string {
	path := req.Path
	if proxy, ok := req.PathParameters["proxy"]; ok && proxy != "" {
		path = "/" + proxy
	}

	if stage := req.RequestContext.Stage; stage != "" {
		prefix := "/" + stage
		if path == prefix {
			path = "/"
		} else if strings.HasPrefix(path, prefix+"/") {
			path = strings.TrimPrefix(path, prefix)
		}
	}

	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s == "" {
			continue
		}
		if dec, err := url.PathUnescape(s); err == nil {
			s = dec
		}
		segs = append(segs, s)
	}
	return segs
}

// intParam parses an optional integer query parameter.
func intParam(params map[string]string, name string, def int) (int, error) {
	raw, ok := params[name]
	if !ok || raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

func respondMessage(status int, msg string) events.APIGatewayProxyResponse {
	return respond(status, messageBody{Message: msg})
}

func respond(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"message":"internal server error"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
