package main

import (
	"context"
	"net"
	"net/http"
)

// requestKey indexes the per request values carried by the ops middlewares.
type requestKey int

const (
	requestIDKey requestKey = iota
	requestNumKey
)

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func withRequestNum(ctx context.Context, n uint64) context.Context {
	return context.WithValue(ctx, requestNumKey, n)
}

// RequestIDFrom returns the request id, or an empty string outside the middlewares chain.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestNumFrom returns the rank of the request since the server started, 0 if unknown.
func RequestNumFrom(ctx context.Context) uint64 {
	n, _ := ctx.Value(requestNumKey).(uint64)
	return n
}

// remoteHost returns the host part of the peer address. The ops server
// listens on a local address and sits behind no proxy, so forwarding
// headers are ignored.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
