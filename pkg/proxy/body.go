package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// requestBody holds an inbound request body in a form the session can hand
// to each attempt. Bodies up to the buffer limit are read fully into memory
// so failed attempts can be retried against other endpoints; larger bodies
// stay as a stream and limit the session to a single attempt.
type requestBody struct {
	buffered []byte
	stream   io.ReadCloser
	isJSON   bool
}

// readRequestBody consumes r's body, buffering up to maxBuffered bytes.
// When the body exceeds the limit, the already-read prefix is stitched back
// in front of the remaining stream.
func readRequestBody(r *http.Request, maxBuffered int64) (*requestBody, error) {
	isJSON := strings.Contains(r.Header.Get("Content-Type"), "application/json")

	if r.Body == nil || r.Body == http.NoBody {
		return &requestBody{buffered: nil, isJSON: isJSON}, nil
	}

	prefix := make([]byte, 0, 8192)
	buf := bytes.NewBuffer(prefix)
	n, err := io.CopyN(buf, r.Body, maxBuffered+1)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if n <= maxBuffered {
		_ = r.Body.Close()
		return &requestBody{buffered: buf.Bytes(), isJSON: isJSON}, nil
	}

	return &requestBody{
		stream: struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(buf.Bytes()), r.Body), r.Body},
		isJSON: isJSON,
	}, nil
}

// Replayable reports whether the body can be sent more than once.
func (b *requestBody) Replayable() bool {
	return b.stream == nil
}

// ForAttempt returns the body reader and content length for one attempt.
// model, when non-empty, overrides the top-level "model" field of a
// buffered JSON body; non-JSON and streamed bodies are passed through
// untouched.
func (b *requestBody) ForAttempt(model string) (io.ReadCloser, int64) {
	if b.stream != nil {
		return b.stream, -1
	}
	if len(b.buffered) == 0 {
		return http.NoBody, 0
	}

	payload := b.buffered
	if model != "" && b.isJSON {
		if rewritten, ok := overrideModel(payload, model); ok {
			payload = rewritten
		}
	}
	return io.NopCloser(bytes.NewReader(payload)), int64(len(payload))
}

// overrideModel rewrites the top-level "model" field of a JSON object.
// Bodies that do not parse as a JSON object are left alone; the override is
// best-effort and never fails a request.
func overrideModel(body []byte, model string) ([]byte, bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}
	encoded, err := json.Marshal(model)
	if err != nil {
		return nil, false
	}
	payload["model"] = encoded
	rewritten, err := json.Marshal(payload)
	if err != nil {
		return nil, false
	}
	return rewritten, true
}
