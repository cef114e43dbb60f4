package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

type requestDataKey struct{}

type RequestData struct {
	TokenString  string
	RefreshToken string
	UserID       uuid.UUID
	Plan         string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	rd, ok := ctx.Value(requestDataKey{}).(*RequestData)
	if !ok {
		return nil
	}
	return rd
}
