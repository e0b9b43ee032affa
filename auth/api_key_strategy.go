package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	defaultKeyIDHeader     = "X-Api-Key-Id"
	defaultSignatureHeader = "X-Api-Signature"
	defaultTimestampHeader = "X-Api-Timestamp"

	defaultReplayWindow = 5 * time.Minute
)

// SignedRequest is the subset of an HTTP request covered by the API key
// signature.
type SignedRequest struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    []byte
}

// KeySecretResolver looks up the shared secret for an API key id. Returning
// an error denies the request.
type KeySecretResolver interface {
	ResolveKeySecret(ctx context.Context, keyID string) (string, error)
}

type KeySecretResolverFunc func(ctx context.Context, keyID string) (string, error)

func (f KeySecretResolverFunc) ResolveKeySecret(ctx context.Context, keyID string) (string, error) {
	return f(ctx, keyID)
}

// HMACKeyStrategy authenticates machine clients. The signature covers method,
// path, timestamp and the SHA-256 of the body; a bounded timestamp window
// rejects replays.
type HMACKeyStrategy struct {
	Resolver        KeySecretResolver
	KeyIDHeader     string
	SignatureHeader string
	TimestampHeader string
	ReplayWindow    time.Duration
	Now             func() time.Time
}

func NewHMACKeyStrategy(resolver KeySecretResolver) *HMACKeyStrategy {
	return &HMACKeyStrategy{
		Resolver:        resolver,
		KeyIDHeader:     defaultKeyIDHeader,
		SignatureHeader: defaultSignatureHeader,
		TimestampHeader: defaultTimestampHeader,
		ReplayWindow:    defaultReplayWindow,
		Now:             func() time.Time { return time.Now().UTC() },
	}
}

// CanonicalString builds the exact byte sequence both sides sign.
func CanonicalString(method string, path string, timestamp string, body []byte) string {
	bodyHash := sha256.Sum256(body)
	return strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(method)),
		strings.TrimSpace(path),
		strings.TrimSpace(timestamp),
		hex.EncodeToString(bodyHash[:]),
	}, "\n")
}

// Sign produces the signature header value for an outbound request. Clients
// and tests share it with the verifier.
func Sign(secret string, method string, path string, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(strings.TrimSpace(secret)))
	_, _ = mac.Write([]byte(CanonicalString(method, path, timestamp, body)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticate returns the verified key id, or an error describing why the
// request was rejected.
func (s *HMACKeyStrategy) Authenticate(ctx context.Context, req SignedRequest) (string, error) {
	if s == nil || s.Resolver == nil {
		return "", fmt.Errorf("auth: key secret resolver is required")
	}

	keyID := strings.TrimSpace(headerLookup(req.Headers, s.keyIDHeader()))
	if keyID == "" {
		return "", fmt.Errorf("auth: %s header is required", s.keyIDHeader())
	}
	signature := strings.TrimSpace(headerLookup(req.Headers, s.signatureHeader()))
	if signature == "" {
		return "", fmt.Errorf("auth: %s header is required", s.signatureHeader())
	}
	timestamp := strings.TrimSpace(headerLookup(req.Headers, s.timestampHeader()))
	if timestamp == "" {
		return "", fmt.Errorf("auth: %s header is required", s.timestampHeader())
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return "", fmt.Errorf("auth: invalid timestamp %q", timestamp)
	}
	issuedAt := time.Unix(unix, 0).UTC()
	now := s.now()
	window := s.replayWindow()
	if issuedAt.Before(now.Add(-window)) || issuedAt.After(now.Add(window)) {
		return "", fmt.Errorf("auth: request timestamp outside replay window")
	}

	secret, err := s.Resolver.ResolveKeySecret(ctx, keyID)
	if err != nil {
		return "", fmt.Errorf("auth: resolve key %q: %w", keyID, err)
	}
	if strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("auth: key %q has no secret", keyID)
	}

	expected := Sign(secret, req.Method, req.Path, timestamp, req.Body)
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(signature)), []byte(expected)) != 1 {
		return "", fmt.Errorf("auth: signature verification failed")
	}
	return keyID, nil
}

func (s *HMACKeyStrategy) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *HMACKeyStrategy) replayWindow() time.Duration {
	if s != nil && s.ReplayWindow > 0 {
		return s.ReplayWindow
	}
	return defaultReplayWindow
}

func (s *HMACKeyStrategy) keyIDHeader() string {
	if s != nil && strings.TrimSpace(s.KeyIDHeader) != "" {
		return strings.TrimSpace(s.KeyIDHeader)
	}
	return defaultKeyIDHeader
}

func (s *HMACKeyStrategy) signatureHeader() string {
	if s != nil && strings.TrimSpace(s.SignatureHeader) != "" {
		return strings.TrimSpace(s.SignatureHeader)
	}
	return defaultSignatureHeader
}

func (s *HMACKeyStrategy) timestampHeader() string {
	if s != nil && strings.TrimSpace(s.TimestampHeader) != "" {
		return strings.TrimSpace(s.TimestampHeader)
	}
	return defaultTimestampHeader
}

func headerLookup(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
