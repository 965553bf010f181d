package ingest

// Input carries one raw reading submission. The body is parsed by the
// reading package itself: measurement field names are device-defined, so
// the shape cannot be a fixed schema.
type Input struct {
	RawBody []byte `contentType:"application/json"`
}

type Output struct {
	Body Response
}

type Response struct {
	Message string `json:"message" example:"Data submitted successfully"`
}
