package pms

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// SignatureHeader carries the webhook HMAC-SHA256 signature over the raw
// JSON body, hex encoded.
const SignatureHeader = "X-Cubby-Signature"

// Recognized webhook events. Unrecognized events are acknowledged without
// action.
const (
	EventTenantCreated   = "tenant.created"
	EventTenantUpdated   = "tenant.updated"
	EventFacilityCreated = "facility.created"
	EventFacilityUpdated = "facility.updated"
)

var (
	ErrInvalidSignature = errors.New("pms: invalid webhook signature")
	ErrInvalidPayload   = errors.New("pms: invalid webhook payload")
)

// WebhookEvent is the inbound webhook envelope.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Sign computes the hex HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares the presented signature against the computed one
// in constant time.
func VerifySignature(secret string, payload []byte, signature string) error {
	presented, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	if !hmac.Equal(presented, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// ParseWebhook decodes the webhook envelope.
func ParseWebhook(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrInvalidPayload
	}
	if event.Event == "" {
		return nil, ErrInvalidPayload
	}
	return &event, nil
}
