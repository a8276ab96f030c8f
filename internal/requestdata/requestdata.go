package requestdata

import (
	"context"

	"github.com/google/uuid"

	"github.com/vistascan/vistascan-backend/internal/types"
)

type contextKey struct{}

// RequestData carries the authenticated identity through a request's context.
type RequestData struct {
	UserID uuid.UUID
	Role   types.UserRole
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, contextKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	rd, _ := ctx.Value(contextKey{}).(*RequestData)
	return rd
}
