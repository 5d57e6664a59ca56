package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/roadmap/domain"
	appLogger "github.com/fastygo/roadmap/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyIdentity   Key = "identity"
)

// Identity headers set by the auth middleware.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches
// it with the request id, client metadata and the caller identity.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := getRequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if id := RequestIdentity(ctx); id.Authenticated() {
		stdCtx = WithIdentity(stdCtx, id)
		stdCtx = appLogger.ContextWithActor(stdCtx, id.UserID)
	}

	return stdCtx, cancel
}

// RequestIdentity reads the identity headers. An empty UserID means anonymous.
func RequestIdentity(ctx *fasthttp.RequestCtx) domain.Identity {
	if ctx == nil {
		return domain.Identity{}
	}
	return domain.Identity{
		UserID: strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderUserID))),
		Email:  strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderUserEmail))),
		Name:   strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderUserName))),
	}
}

// ClearIdentity removes any identity headers supplied by the client.
func ClearIdentity(ctx *fasthttp.RequestCtx) {
	ctx.Request.Header.Del(HeaderUserID)
	ctx.Request.Header.Del(HeaderUserEmail)
	ctx.Request.Header.Del(HeaderUserName)
}

// WithIdentity stores the caller on the context.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, KeyIdentity, id)
}

// IdentityFrom returns the caller stored by Attach.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(KeyIdentity).(domain.Identity)
	return id, ok && id.Authenticated()
}

func getRequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if header := string(ctx.Request.Header.Peek("X-Request-ID")); strings.TrimSpace(header) != "" {
		return header
	}
	return uuid.NewString()
}
