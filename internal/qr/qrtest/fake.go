// Package qrtest provides a QR renderer that keeps URLs in memory.
package qrtest

import (
	"context"
	"sync"
)

type Renderer struct {
	mu    sync.Mutex
	calls int

	Err error
}

func (r *Renderer) RenderAndUpload(_ context.Context, address string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.Err != nil {
		return "", r.Err
	}
	return "https://qr.test/" + address, nil
}

func (r *Renderer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
