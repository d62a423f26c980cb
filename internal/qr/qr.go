// Package qr renders wallet address QR codes and keeps the images in Redis
// so the HTTP server can serve them from a stable URL.
package qr

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skip2/go-qrcode"
)

const keyPrefix = "qr:"

var ErrNotFound = errors.New("qr image not found")

type Service struct {
	rds           *redis.Client
	publicBaseURL string
	size          int
	ttl           time.Duration // 0 keeps images forever
}

func NewService(rds *redis.Client, publicBaseURL string, size int, ttl time.Duration) *Service {
	if size <= 0 {
		size = 256
	}
	return &Service{
		rds:           rds,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		size:          size,
		ttl:           ttl,
	}
}

// RenderAndUpload renders a PNG for address, stores it and returns its public URL.
func (s *Service) RenderAndUpload(ctx context.Context, address string) (string, error) {
	png, err := s.Render(address)
	if err != nil {
		return "", err
	}
	if err := s.rds.Set(ctx, keyPrefix+address, png, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store qr: %w", err)
	}
	return s.URL(address), nil
}

// URL is where the image for address is served.
func (s *Service) URL(address string) string {
	return s.publicBaseURL + "/qr/" + url.PathEscape(address)
}

// Image returns the stored PNG for address.
func (s *Service) Image(ctx context.Context, address string) ([]byte, error) {
	b, err := s.rds.Get(ctx, keyPrefix+address).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Render returns the PNG for address without storing it.
func (s *Service) Render(address string) ([]byte, error) {
	png, err := qrcode.Encode("bitcoin:"+address, qrcode.Medium, s.size)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return png, nil
}
