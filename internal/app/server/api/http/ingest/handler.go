package ingest

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"sensorgate/internal/domain/reading"
)

// Buffer is the slice of the durable buffer the ingest surface needs.
type Buffer interface {
	Ingest(deviceName string, r reading.Reading) error
}

type Handler struct {
	buffer     Buffer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(buffer Buffer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		buffer:     buffer,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.dataInputOp(), h.dataInput)
}

func (h *Handler) dataInput(_ context.Context, input *Input) (*Output, error) {
	deviceName, r, err := reading.ParseIngest(input.RawBody)
	if err != nil {
		h.log.Warn("rejected reading submission", "error", err)
		return nil, huma.NewError(http.StatusNotAcceptable, "Error committing IoT data", err)
	}

	if err := h.buffer.Ingest(deviceName, r); err != nil {
		h.log.Warn("rejected reading submission", "device", deviceName, "error", err)
		return nil, huma.NewError(http.StatusNotAcceptable, "Error committing IoT data", err)
	}

	h.log.Debug("reading buffered", "device", deviceName)

	return &Output{
		Body: Response{
			Message: "Data submitted successfully",
		},
	}, nil
}
