package pipeline

import "context"

type localPortKey struct{}
type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithLocalPort attaches the connection's local port to ctx. cmd/staticserver
// populates this via http.Server.ConnContext so the HTTPS-redirect gate
// (§4.11) can match the configured source-port list without the
// core depending on net.Listener directly.
func WithLocalPort(ctx context.Context, port int) context.Context {
	return context.WithValue(ctx, localPortKey{}, port)
}

func localPortFrom(ctx context.Context) (int, bool) {
	port, ok := ctx.Value(localPortKey{}).(int)
	return port, ok
}
