package outbound

import (
	"net/http"

	"github.com/google/uuid"
)

// Identity resolves the authenticated caller of a transport request.
// Authentication itself happens upstream; the service trusts the
// returned ID as-is.
type Identity interface {
	CallerID(r *http.Request) (uuid.UUID, error)
}
