package ws

import (
	"net/http"

	"bidhouse-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

// QueryIdentity resolves the caller from a query parameter on the
// upgrade request. Browsers cannot set headers on WebSocket upgrades,
// so the authenticating proxy rewrites the token into the query string.
type QueryIdentity struct {
	Param string
}

// NewQueryIdentity creates a QueryIdentity reading user_id
func NewQueryIdentity() QueryIdentity {
	return QueryIdentity{Param: "user_id"}
}

func (i QueryIdentity) CallerID(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get(i.Param)
	if raw == "" {
		return uuid.Nil, shared.ErrUserIDRequired
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, shared.ErrInvalidUserID
	}

	return userID, nil
}
