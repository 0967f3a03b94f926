// Package handler exposes the policy store and the chat session as a JSON API.
package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"golang.org/x/time/rate"

	"policy-assistant/internal/chat"
	"policy-assistant/internal/logger"
	"policy-assistant/internal/metrics"
	"policy-assistant/internal/model"
	"policy-assistant/internal/store"
	"policy-assistant/internal/urgency"
)

const policiesPrefix = "/api/policies/"

type Options struct {
	Logger  *logger.Logger
	Metrics *metrics.Metrics
	// ChatLimiter bounds chat submissions; nil means unlimited.
	ChatLimiter *rate.Limiter
	TermDays    int
	Now         func() time.Time
}

type Handler struct {
	store    *store.Store
	session  *chat.Session
	log      *logger.Logger
	metrics  *metrics.Metrics
	limiter  *rate.Limiter
	termDays int
	now      func() time.Time

	serveMetrics fasthttp.RequestHandler
}

func New(st *store.Store, session *chat.Session, opts Options) *Handler {
	h := &Handler{
		store:    st,
		session:  session,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		limiter:  opts.ChatLimiter,
		termDays: opts.TermDays,
		now:      opts.Now,
	}
	if h.log == nil {
		h.log = logger.Nop()
	}
	if h.metrics == nil {
		h.metrics = metrics.NewMetrics()
	}
	if h.termDays <= 0 {
		h.termDays = urgency.NominalTermDays
	}
	if h.now == nil {
		h.now = time.Now
	}
	h.serveMetrics = fasthttpadaptor.NewFastHTTPHandler(h.metrics.Handler())
	return h
}

// Handle is the fasthttp entry point.
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	route := h.dispatch(ctx)

	status := ctx.Response.StatusCode()
	method := string(ctx.Method())
	h.metrics.RecordHTTPRequest(method, route, strconv.Itoa(status), time.Since(start))
	if route != "/metrics" && route != "/health" {
		h.log.LogHTTPRequest(method, string(ctx.Path()), status, time.Since(start))
	}
}

// dispatch serves the request and returns its route template for metrics.
func (h *Handler) dispatch(ctx *fasthttp.RequestCtx) string {
	path := string(ctx.Path())

	switch {
	case path == "/health":
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
		return path
	case path == "/metrics":
		h.serveMetrics(ctx)
		return path
	case path == "/api/policies":
		switch {
		case ctx.IsGet():
			h.listPolicies(ctx)
		case ctx.IsPost():
			h.addPolicy(ctx)
		default:
			methodNotAllowed(ctx)
		}
		return path
	case path == "/api/policies/batch":
		if !ctx.IsPost() {
			methodNotAllowed(ctx)
		} else {
			h.applyBatch(ctx)
		}
		return path
	case strings.HasPrefix(path, policiesPrefix):
		id := strings.TrimPrefix(path, policiesPrefix)
		switch {
		case id == "" || strings.Contains(id, "/"):
			writeError(ctx, fasthttp.StatusNotFound, "Not found")
		case ctx.IsGet():
			h.getPolicy(ctx, id)
		case ctx.IsPut():
			h.updatePolicy(ctx, id)
		case ctx.IsDelete():
			h.deletePolicy(ctx, id)
		default:
			methodNotAllowed(ctx)
		}
		return policiesPrefix + "{id}"
	case path == "/api/chat":
		switch {
		case ctx.IsGet():
			h.transcript(ctx)
		case ctx.IsPost():
			h.submitChat(ctx)
		default:
			methodNotAllowed(ctx)
		}
		return path
	default:
		writeError(ctx, fasthttp.StatusNotFound, "Not found")
		return "unmatched"
	}
}

func (h *Handler) listPolicies(ctx *fasthttp.RequestCtx) {
	now := h.now()
	policies := h.store.List()

	resp := model.DashboardResponse{
		Policies: make([]model.PolicyView, len(policies)),
		Count:    len(policies),
	}
	for i, p := range policies {
		resp.Policies[i] = model.PolicyView{Policy: p, Urgency: urgency.Assess(p, now, h.termDays)}
		resp.TotalPremium += p.Premium
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (h *Handler) getPolicy(ctx *fasthttp.RequestCtx, id string) {
	p, ok := h.store.Get(id)
	if !ok {
		writeError(ctx, fasthttp.StatusNotFound, "No policy with id "+id)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, model.PolicyView{Policy: p, Urgency: urgency.Assess(p, h.now(), h.termDays)})
}

func (h *Handler) addPolicy(ctx *fasthttp.RequestCtx) {
	var p model.Policy
	if !decodeBody(ctx, &p) {
		return
	}
	res, err := h.store.Add(ctx, p)
	h.writeResult(ctx, res, err, fasthttp.StatusCreated)
}

// updatePolicy replaces every field of the policy; the id comes from the path.
func (h *Handler) updatePolicy(ctx *fasthttp.RequestCtx, id string) {
	var p model.Policy
	if !decodeBody(ctx, &p) {
		return
	}
	p.ID = id
	res, err := h.store.Update(ctx, p)
	h.writeResult(ctx, res, err, fasthttp.StatusOK)
}

func (h *Handler) deletePolicy(ctx *fasthttp.RequestCtx, id string) {
	res, err := h.store.Delete(ctx, id)
	h.writeResult(ctx, res, err, fasthttp.StatusOK)
}

func (h *Handler) applyBatch(ctx *fasthttp.RequestCtx) {
	var req model.BatchRequest
	if !decodeBody(ctx, &req) {
		return
	}
	if len(req.Mutations) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "At least one mutation is required")
		return
	}

	// A persist failure is already reported inside the batch messages
	resp, _ := h.store.ApplyBatch(ctx, req.Mutations)
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (h *Handler) transcript(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, model.TranscriptResponse{
		State:    string(h.session.State()),
		Messages: h.session.Transcript(),
	})
}

func (h *Handler) submitChat(ctx *fasthttp.RequestCtx) {
	if h.limiter != nil && !h.limiter.Allow() {
		writeError(ctx, fasthttp.StatusTooManyRequests, "Too many messages, please slow down")
		return
	}

	var req model.ChatRequest
	if !decodeBody(ctx, &req) {
		return
	}

	reply, err := h.session.Submit(ctx, req.Text)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(ctx, fasthttp.StatusBadRequest, "Message text is required")
	case errors.Is(err, chat.ErrBusy):
		writeError(ctx, fasthttp.StatusConflict, "A reply is still pending")
	case err != nil:
		h.log.Error().Err(err).Msg("chat submit failed")
		writeError(ctx, fasthttp.StatusInternalServerError, "Internal error")
	default:
		writeJSON(ctx, fasthttp.StatusOK, model.ChatResponse{Reply: reply, State: string(h.session.State())})
	}
}

// writeResult maps a store outcome onto a status code. A persist failure keeps
// the OK outcome; the result carries a PERSIST_FAILED warning.
func (h *Handler) writeResult(ctx *fasthttp.RequestCtx, res *model.Result, err error, okStatus int) {
	if res == nil {
		h.log.Error().Err(err).Msg("store operation failed")
		writeError(ctx, fasthttp.StatusInternalServerError, "Internal error")
		return
	}

	status := okStatus
	switch res.Outcome {
	case model.OutcomeNotFound:
		status = fasthttp.StatusNotFound
	case model.OutcomeRejected:
		status = fasthttp.StatusUnprocessableEntity
	}
	writeJSON(ctx, status, res)
}

func decodeBody(ctx *fasthttp.RequestCtx, v interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func methodNotAllowed(ctx *fasthttp.RequestCtx) {
	writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "Encoding response failed")
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	body, _ := json.Marshal(model.ErrorResponse{
		Status:  status,
		Message: message,
	})
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
