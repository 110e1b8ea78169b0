package api

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bjoernek/multi-chain-voting/sdk"
)

const requestIDHeader = "X-Request-ID"

// Handler serves the JSON-RPC API on "/", Prometheus metrics on "/metrics" and a liveness
// probe on "/healthz".
type Handler struct {
	router *gin.Engine
	rpc    *rpc.Server
}

var _ http.Handler = (*Handler)(nil)

// NewHandler registers service on a JSON-RPC server and routes HTTP requests to it. Each
// request carries lggr, tagged with a request id, in its context.
func NewHandler(service *Service, lggr *zap.SugaredLogger, gatherer prometheus.Gatherer) (*Handler, error) {
	server := rpc.NewServer()
	if err := server.RegisterName(Namespace, service); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestContext(lggr))

	router.POST("/", gin.WrapH(server))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &Handler{router: router, rpc: server}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Close stops the JSON-RPC server. In-flight requests are cancelled.
func (h *Handler) Close() {
	h.rpc.Stop()
}

// requestContext tags the request with a request id, stores the request logger and the caller
// identity in the request context and logs the request once it completes.
func requestContext(lggr *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(requestIDHeader, requestID)

		reqLggr := lggr.With("request_id", requestID)
		ctx := sdk.ContextWithLogger(c.Request.Context(), reqLggr)
		if identity := c.GetHeader(IdentityHeader); identity != "" {
			ctx = ContextWithIdentity(ctx, identity)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			reqLggr.Errorw("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			reqLggr.Warnw("HTTP request", fields...)
		default:
			reqLggr.Debugw("HTTP request", fields...)
		}
	}
}
