package workshop

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/workshophq/workshop/internal/config"
	"github.com/workshophq/workshop/internal/middleware"
	"github.com/workshophq/workshop/internal/modules/content"
	"github.com/workshophq/workshop/internal/pkg/crypt"
	"github.com/workshophq/workshop/internal/pkg/flash"
	"github.com/workshophq/workshop/internal/pkg/response"
	"go.uber.org/zap"
)

const maxUploadMemory = 32 << 20 // 32 MB

type opFunc func(ctx context.Context, m Meta, fields map[string]interface{}) (content.Content, error)

// Handler exposes the workshop operations over HTTP form posts.
type Handler struct {
	cfg      config.WorkshopConfig
	resolver *Resolver
	codec    Codec
	log      *zap.Logger
	dispatch map[Operation]opFunc
}

// NewHandler wires the dispatch table and verifies at startup that every
// declared operation has a handler.
func NewHandler(cfg config.WorkshopConfig, resolver *Resolver, codec Codec, log *zap.Logger) (*Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{cfg: cfg, resolver: resolver, codec: codec, log: log}
	h.dispatch = map[Operation]opFunc{
		OpEntryCreate:  resolver.EntryCreate,
		OpEntryUpdate:  resolver.EntryUpdate,
		OpEntryDelete:  resolver.EntryDelete,
		OpPageCreate:   resolver.PageCreate,
		OpPageUpdate:   resolver.PageUpdate,
		OpPageDelete:   resolver.PageDelete,
		OpGlobalUpdate: resolver.GlobalUpdate,
	}

	for _, op := range Operations() {
		if h.dispatch[op] == nil {
			return nil, fmt.Errorf("workshop: operation %s has no handler", op)
		}
	}
	return h, nil
}

// RegisterRoutes mounts one POST route per operation onto the router group,
// plus the status endpoint a rendered page polls for its flash signals.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	for op, fn := range h.dispatch {
		rg.POST(op.Path(), h.post(op, fn))
	}
	rg.GET("/status", h.status)
}

// status reports the one-shot outcome of the previous submission: success
// flag, per-bag errors and the preserved input. Reading clears them.
func (h *Handler) status(c *gin.Context) {
	errs := gin.H{}
	for _, bag := range []string{flash.BagWorkshop, flash.BagDefault} {
		if bagErrs := flash.Errors(c, bag); bagErrs != nil {
			errs[bag] = bagErrs
		}
	}
	response.OK(c, gin.H{
		"success": flash.Success(c),
		"errors":  errs,
		"old":     flash.Old(c),
	})
}

func (h *Handler) post(op Operation, fn opFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cfg.EnforceAuth && !middleware.IsAuthenticated(c) {
			response.Back(c)
			return
		}

		raw, err := collectFields(c)
		if err != nil {
			response.BadRequest(c, "could not parse form data")
			return
		}

		m, fields, err := Classify(raw, h.codec)
		if err != nil {
			// A corrupted meta payload must fail the request, never proceed
			// with partial meta.
			h.log.Warn("malformed meta payload", zap.String("op", string(op)), zap.Error(err))
			response.BadRequest(c, "malformed meta payload")
			return
		}

		cnt, err := fn(c.Request.Context(), m, fields)

		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			h.failValidation(c, verr, fields)
		case errors.Is(err, ErrMissingCollection):
			h.failValidation(c, &ValidationError{
				Bag:    flash.BagWorkshop,
				Fields: Errors{"collection": "A collection is required."},
			}, fields)
		case errors.Is(err, content.ErrNotFound):
			response.NotFoundMsg(c, "content not found")
		case errors.Is(err, crypt.ErrMalformedMeta):
			response.BadRequest(c, "malformed meta payload")
		case err != nil:
			h.log.Error("workshop operation failed", zap.String("op", string(op)), zap.Error(err))
			response.InternalError(c, err)
		default:
			if err := flash.PutSuccess(c); err != nil {
				h.log.Warn("flash success not saved", zap.Error(err))
			}
			response.Redirect(c, redirectTarget(m, c.Request.Referer(), cnt))
		}
	}
}

// failValidation redirects back with the errors and the submitted input
// preserved for redisplay.
func (h *Handler) failValidation(c *gin.Context, verr *ValidationError, fields map[string]interface{}) {
	if err := flash.PutErrors(c, verr.Bag, verr.Fields); err != nil {
		h.log.Warn("flash errors not saved", zap.Error(err))
	}
	if err := flash.PutOld(c, oldInput(fields)); err != nil {
		h.log.Warn("flash old input not saved", zap.Error(err))
	}
	response.Back(c)
}

// collectFields flattens the posted form into a field map: repeated names
// become string slices, uploaded files keep their multipart handles.
func collectFields(c *gin.Context) (map[string]interface{}, error) {
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}

	fields := make(map[string]interface{}, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if key == "_token" {
			continue
		}
		if len(values) == 1 {
			fields[key] = values[0]
		} else {
			fields[key] = values
		}
	}

	if c.Request.MultipartForm != nil {
		for key, headers := range c.Request.MultipartForm.File {
			fields[key] = headers
		}
	}
	return fields, nil
}

// redirectTarget picks the success destination: back to the referrer by
// default, the saved object's canonical URL for the "url" sentinel, or the
// literal configured value.
func redirectTarget(m Meta, referer string, cnt content.Content) string {
	switch m.Redirect {
	case "":
		return referer
	case "url":
		if cnt != nil {
			return cnt.URLPath()
		}
		return referer
	default:
		return m.Redirect
	}
}

// oldInput keeps only the redisplayable (string) values of a submission.
func oldInput(fields map[string]interface{}) map[string]string {
	old := make(map[string]string, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			old[k] = s
		}
	}
	return old
}
