package shellcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
)

// HandlerFetcher fetches from an in-process handler, normally the static
// file server for the built app shell.
type HandlerFetcher struct {
	Handler http.Handler
}

var _ Fetcher = HandlerFetcher{}

func (f HandlerFetcher) Fetch(ctx context.Context, path string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	rec := httptest.NewRecorder()
	f.Handler.ServeHTTP(rec, req)
	res := rec.Result()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: res.StatusCode, Header: res.Header.Clone(), Body: body}, nil
}
