package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CoMatu/test-gql-server/internal/engine"
	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/resolver"
)

// Handlers serves engine operations.
type Handlers struct {
	eng    *engine.Engine
	logger *slog.Logger
}

// NewHandlers creates handlers backed by eng. A nil logger uses slog.Default.
func NewHandlers(eng *engine.Engine, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{eng: eng, logger: logger}
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleQuery runs the query named in the path. An empty body runs it
// without filter or selection.
func (h *Handlers) HandleQuery(c *gin.Context) {
	name := c.Param("name")
	logger := h.logger.With("query", name)

	var req QueryRequest
	if !h.bind(c, &req) {
		return
	}

	rows, err := h.eng.RunQuery(name, req.Filter, resolver.SelectionFromPaths(req.Fields...))
	if err != nil {
		logger.Debug("query failed", "error", err)
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: rows})
}

// HandleMutation runs the mutation named in the path.
func (h *Handlers) HandleMutation(c *gin.Context) {
	name := c.Param("name")
	logger := h.logger.With("mutation", name)

	var req MutationRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Input == nil {
		req.Input = ir.IRObject{}
	}

	out, err := h.eng.RunMutation(name, req.ID, req.Input)
	if err != nil {
		logger.Warn("mutation failed", "id", req.ID, "error", err)
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: out})
}

// HandleCharge returns one live charge.
func (h *Handlers) HandleCharge(c *gin.Context) {
	h.byID(c, h.eng.ChargeByID)
}

// HandlePump returns one live pump.
func (h *Handlers) HandlePump(c *gin.Context) {
	h.byID(c, h.eng.PumpByID)
}

func (h *Handlers) byID(c *gin.Context, get func(string) (ir.IRObject, error)) {
	rec, err := get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: rec})
}

// bind decodes an optional JSON body into dst. It writes a 400 and
// returns false when the body is malformed.
func (h *Handlers) bind(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: codeInvalidRequest, Details: err.Error()})
		return false
	}
	return true
}

// fail maps an engine error onto a status code.
func (h *Handlers) fail(c *gin.Context, err error) {
	var engErr *engine.Error
	switch {
	case errors.Is(err, engine.ErrUnknownOperation):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: codeUnknownOperation})
	case errors.Is(err, engine.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: codeInvalidRequest})
	case engine.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: string(engine.ErrCodeNotFound)})
	case errors.As(err, &engErr):
		h.logger.Error("engine error", "code", engErr.Code, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: engErr.Message, Code: string(engErr.Code)})
	default:
		h.logger.Error("internal error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: codeInternal})
	}
}
