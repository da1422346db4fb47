package rest

import (
	"net/http"

	"bidhouse-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

// HeaderIdentity resolves the caller from a request header populated by
// the authenticating proxy upstream. The value is trusted as-is.
type HeaderIdentity struct {
	Header string
}

// NewHeaderIdentity creates a HeaderIdentity reading X-User-ID
func NewHeaderIdentity() HeaderIdentity {
	return HeaderIdentity{Header: "X-User-ID"}
}

func (i HeaderIdentity) CallerID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(i.Header)
	if raw == "" {
		return uuid.Nil, shared.ErrUserIDRequired
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, shared.ErrInvalidUserID
	}

	return userID, nil
}
