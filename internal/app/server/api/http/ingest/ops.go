package ingest

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) dataInputOp() huma.Operation {
	return huma.Operation{
		OperationID: "data-input",
		Method:      http.MethodPost,
		Path:        "/api/dataInput",
		Summary:     "Submit a sensor reading",
		Description: "Appends one timestamped reading to the device's current-day buffer",
		Tags:        []string{"ingest"},
		Middlewares: h.middleware,
	}
}
