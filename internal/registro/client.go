package registro

import (
	"context"
	"fmt"

	"servicredit-registro/internal/common/errors"
	commonhttp "servicredit-registro/internal/common/http"
)

// RegistrarPath is the registrar endpoint relative to the API base URL.
const RegistrarPath = "/api/registrar"

// Registrar submits a payload to the registration backend.
type Registrar interface {
	Register(ctx context.Context, payload Payload) (*RegistrarResponse, error)
}

// RegistrarClient talks to the external registrar API over HTTP.
type RegistrarClient struct {
	http     *commonhttp.Client
	endpoint string
}

// NewRegistrarClient posts to endpoint, the full registrar URL.
func NewRegistrarClient(endpoint string, client *commonhttp.Client) *RegistrarClient {
	return &RegistrarClient{
		http:     client,
		endpoint: endpoint,
	}
}

// Register POSTs the payload. Any 2xx with a decodable body is returned as a
// RegistrarResponse, including rejections; the caller inspects the code.
func (c *RegistrarClient) Register(ctx context.Context, payload Payload) (*RegistrarResponse, error) {
	resp, err := c.http.PostJSON(ctx, c.endpoint, payload)
	if err != nil {
		return nil, errors.NewRegistrarUnreachableError(err)
	}

	if !resp.OK() {
		return nil, errors.NewRegistrarHTTPError(resp.StatusCode,
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(resp.Body), 200)))
	}

	var out RegistrarResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, errors.NewRegistrarHTTPError(resp.StatusCode, err.Error())
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
