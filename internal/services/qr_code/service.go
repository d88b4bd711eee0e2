package qr_code

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"giftledger/internal/models"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
)

const (
	DefaultSize      = 256
	DefaultCacheSize = 1024

	dataURIPrefix = "data:image/png;base64,"
)

var ErrInvalidPayload = errors.New("invalid gift card QR payload")

type Config struct {
	Size      int
	CacheSize int
}

type service struct {
	size  int
	cache *lru.Cache
}

// NewService creates a renderer. Rendered codes are memoized by card id since
// the payload never changes for a card.
func NewService(cfg Config) (Service, error) {
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}

	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR cache: %w", err)
	}
	return &service{size: cfg.Size, cache: cache}, nil
}

func (s *service) Render(cardID uuid.UUID) (string, error) {
	if cached, ok := s.cache.Get(cardID); ok {
		return cached.(string), nil
	}

	code, err := qr.Encode(Payload(cardID), qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	code, err = barcode.Scale(code, s.size, s.size)
	if err != nil {
		return "", fmt.Errorf("failed to scale QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return "", fmt.Errorf("failed to encode QR image: %w", err)
	}

	uri := dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes())
	s.cache.Add(cardID, uri)
	return uri, nil
}

// Payload is the text encoded in a card's QR code.
func Payload(cardID uuid.UUID) string {
	return models.QRPayloadPrefix + cardID.String()
}

// ParsePayload extracts the card id from a scanned QR payload.
func ParsePayload(payload string) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(payload), models.QRPayloadPrefix)
	if !ok {
		return uuid.Nil, ErrInvalidPayload
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return id, nil
}
