package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
	icache "github.com/vijaygopalbalasa/ZKRisk/internal/service/cache"
	"github.com/vijaygopalbalasa/ZKRisk/internal/service/ratelimit"
	"github.com/vijaygopalbalasa/ZKRisk/internal/usecase"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/config"
	xhttp "github.com/vijaygopalbalasa/ZKRisk/pkg/http"
	xlogger "github.com/vijaygopalbalasa/ZKRisk/pkg/logger"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/util"
)

// OracleHandler exposes the volatility pipeline over HTTP.
type OracleHandler struct {
	cfg       *config.Config
	logger    *xlogger.Logger
	pred      *usecase.Predictor
	collector *usecase.PriceCollector
	cache     icache.BytesCache
	rl        *ratelimit.Limiter
}

func NewOracleHandler(cfg *config.Config, logger *xlogger.Logger, pred *usecase.Predictor, collector *usecase.PriceCollector, cache icache.BytesCache) *OracleHandler {
	var rl *ratelimit.Limiter
	if cfg.RateLimit.PerMinute > 0 {
		rl = ratelimit.PerMinute(cfg.RateLimit.PerMinute)
	}
	return &OracleHandler{
		cfg:       cfg,
		logger:    logger,
		pred:      pred,
		collector: collector,
		cache:     cache,
		rl:        rl,
	}
}

func (h *OracleHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/infer", h.Infer)
	g.POST("/infer", h.Infer)
	g.GET("/volatility", h.Volatility)
	g.GET("/summary", h.Summary)
	g.GET("/price-feed", h.PriceFeed)
	g.GET("/model-info", h.ModelInfo)
	g.GET("/demo", h.Demo)
}

// Health reports process and collector liveness plus history depth per symbol.
func (h *OracleHandler) Health(c echo.Context) error {
	depths := make(map[string]int, len(h.cfg.Pyth.Symbols))
	for _, s := range h.cfg.Pyth.Symbols {
		depths[s] = h.pred.HistoryDepth(s)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":            "healthy",
		"collector_running": h.collector.IsRunning(),
		"model_configured":  h.cfg.Model.ServiceURL != "",
		"symbols":           h.cfg.Pyth.Symbols,
		"history_depth":     depths,
		"timestamp":         time.Now().UTC(),
	})
}

// Infer runs the model over an explicit volatility series, or over collected
// price history when no series is given.
func (h *OracleHandler) Infer(c echo.Context) error {
	if !h.allow(c, "infer") {
		return xhttp.TooManyRequestsResponse(c)
	}
	req := &models.InferRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	vols := req.Volatility
	if len(vols) == 0 && req.VolatilityCSV != "" {
		parsed, err := parseVolsCSV(req.VolatilityCSV)
		if err != nil {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code:    "ERR_INVALID",
				Field:   "volatility",
				Message: "volatility must be a comma-separated list of numbers",
			}})
		}
		vols = parsed
	}

	ctx := c.Request().Context()
	start := time.Now()
	var report *models.VolatilityReport
	if len(vols) == 0 {
		if !h.knownSymbol(req.Symbol) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown symbol %s", req.Symbol))
		}
		s := h.pred.Summary(ctx, req.Symbol)
		report = &models.VolatilityReport{
			Symbol:     s.Symbol,
			Volatility: s.ModelVolatility,
			Lambda:     s.Lambda,
			Lambda1000: s.Lambda1000,
			Method:     s.Method,
			DataPoints: s.DataPoints,
		}
	} else {
		report = h.pred.Infer(ctx, req.Symbol, vols)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"result":             report,
		"processing_time_ms": time.Since(start).Milliseconds(),
	})
}

// Volatility reports historical volatility and lambda without the model.
func (h *OracleHandler) Volatility(c echo.Context) error {
	if !h.allow(c, "volatility") {
		return xhttp.TooManyRequestsResponse(c)
	}
	req := &models.VolatilityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.knownSymbol(req.Symbol) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown symbol %s", req.Symbol))
	}
	return xhttp.SuccessResponse(c, h.pred.CurrentVolatility(req.Symbol))
}

// Summary runs the full pipeline. Responses are cached briefly since every
// call may hit the model service.
func (h *OracleHandler) Summary(c echo.Context) error {
	if !h.allow(c, "summary") {
		return xhttp.TooManyRequestsResponse(c)
	}
	req := &models.SummaryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.knownSymbol(req.Symbol) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown symbol %s", req.Symbol))
	}

	ctx := c.Request().Context()
	key := "summary:" + req.Symbol
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(ctx, key); err == nil && ok {
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	s := h.pred.Summary(ctx, req.Symbol)
	b, merr := json.Marshal(xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    s,
	})
	if merr != nil {
		return xhttp.SuccessResponse(c, s)
	}
	if h.cache != nil {
		if cerr := h.cache.SetBytes(ctx, key, b, h.cfg.Cache.TTL); cerr != nil {
			h.logger.Warn("summary cache write failed", xlogger.Error(cerr))
		}
	}
	return c.JSONBlob(http.StatusOK, b)
}

// PriceFeed returns recent collected samples, optionally bounded by `from`.
func (h *OracleHandler) PriceFeed(c echo.Context) error {
	if !h.allow(c, "price-feed") {
		return xhttp.TooManyRequestsResponse(c)
	}
	req := &models.PriceFeedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.knownSymbol(req.Symbol) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown symbol %s", req.Symbol))
	}

	from := util.ParseTimeDefault(c.QueryParam("from"), time.Time{})
	samples := h.pred.PriceHistory(req.Symbol, req.Count, from)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":  req.Symbol,
		"count":   len(samples),
		"samples": samples,
	})
}

// ModelInfo describes the model and risk configuration in effect.
func (h *OracleHandler) ModelInfo(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"model":              "lstm",
		"backend_configured": h.cfg.Model.ServiceURL != "",
		"service_url":        h.cfg.Model.ServiceURL,
		"sequence_length":    h.cfg.Model.SequenceLength,
		"feature_count":      h.cfg.Model.FeatureCount,
		"risk_strategy":      h.cfg.Risk.Strategy,
		"lambda_min":         h.cfg.Risk.MinLambda,
		"lambda_max":         h.cfg.Risk.MaxLambda,
		"history_capacity":   h.cfg.History.MaxSamples,
		"collector_running":  h.collector.IsRunning(),
	})
}

type demoRow struct {
	Volatility     float64 `json:"volatility"`
	Lambda         float64 `json:"lambda"`
	Lambda1000     int64   `json:"lambda1000"`
	Risk           string  `json:"risk_assessment"`
	Interpretation string  `json:"interpretation"`
}

// demoVols spans the calm-to-stressed volatility range.
var demoVols = []float64{0.05, 0.15, 0.25, 0.5, 0.8}

// Demo shows how lambda responds across representative volatility levels and
// runs the canned series through the inference path.
func (h *OracleHandler) Demo(c echo.Context) error {
	calc := usecase.NewLambdaCalculator(h.cfg)
	rows := make([]demoRow, 0, len(demoVols))
	for _, v := range demoVols {
		l := calc.Lambda(v)
		rows = append(rows, demoRow{
			Volatility:     v,
			Lambda:         l,
			Lambda1000:     models.Lambda1000(l),
			Risk:           string(models.AssessRisk(v)),
			Interpretation: interpretLambda(l),
		})
	}
	pipeline := h.pred.Infer(c.Request().Context(), "ETH/USD", demoVols)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"strategy": h.cfg.Risk.Strategy,
		"rows":     rows,
		"pipeline": pipeline,
	})
}

// interpretLambda phrases a lambda as a leverage guideline.
func interpretLambda(lambda float64) string {
	maxLTV := int(lambda * 100)
	switch {
	case lambda > 1.4:
		return "low risk, up to " + strconv.Itoa(maxLTV) + "% LTV"
	case lambda > 0.8:
		return "medium risk, up to " + strconv.Itoa(maxLTV) + "% LTV"
	default:
		return "high risk, conservative " + strconv.Itoa(maxLTV) + "% LTV cap"
	}
}

func (h *OracleHandler) knownSymbol(symbol string) bool {
	_, ok := h.cfg.Pyth.Feeds[symbol]
	return ok
}

func (h *OracleHandler) allow(c echo.Context, endpoint string) bool {
	if h.rl == nil {
		return true
	}
	if h.rl.Allow(c.RealIP() + ":" + endpoint) {
		return true
	}
	h.logger.Warn("rate limited",
		xlogger.String("endpoint", endpoint),
		xlogger.String("remote", c.RealIP()))
	return false
}

func parseVolsCSV(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	vols := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		vols = append(vols, v)
	}
	return vols, nil
}
