package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tidekv/engine/internal/api/validation"
	"github.com/tidekv/engine/internal/storage"
	"github.com/tidekv/engine/internal/storage/kv"
)

// maxBodySize leaves room for base64 inflation of the largest value
const maxBodySize = 2*validation.MaxValueSize + 4096

// KeyHandlers provides HTTP handlers for single-key operations
type KeyHandlers struct {
	storage storage.StorageBackend
}

// NewKeyHandlers creates new key handlers
func NewKeyHandlers(storage storage.StorageBackend) *KeyHandlers {
	return &KeyHandlers{storage: storage}
}

// SetRequest is the body of PUT /api/v1/keys/{key}. Value is decoded according
// to Kind: a JSON string for text, base64 for bytes, a number for integer and
// true/false for boolean.
type SetRequest struct {
	Kind       string          `json:"kind"`
	Value      json.RawMessage `json:"value"`
	TTLSeconds int64           `json:"ttl_seconds,omitempty"`
}

// ExpireRequest is the body of POST /api/v1/keys/{key}/expire
type ExpireRequest struct {
	Seconds *int64 `json:"seconds"`
}

// KeyResponse carries one key and its value
type KeyResponse struct {
	Status    string `json:"status"`
	Key       string `json:"key"`
	Kind      string `json:"kind"`
	Value     any    `json:"value"`
	ExpiresAt *int64 `json:"expires_at,omitempty"`
}

// TTLResponse carries the absolute deadline of a key in epoch milliseconds
type TTLResponse struct {
	Status    string `json:"status"`
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at"`
}

// Get handles GET /api/v1/keys/{key}
func (h *KeyHandlers) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r)
	if !ok {
		return
	}

	store := h.storage.Store()
	value, found := store.Get(r.Context(), key)
	if !found {
		writeError(w, http.StatusNotFound, "key not found")
		return
	}

	resp := newKeyResponse(key, value)
	if at, ok := store.TimeToLive(r.Context(), key); ok {
		ms := int64(at)
		resp.ExpiresAt = &ms
	}
	writeJSON(w, http.StatusOK, resp)
}

// Set handles PUT /api/v1/keys/{key}
func (h *KeyHandlers) Set(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r)
	if !ok {
		return
	}

	var req SetRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	value, err := decodeValue(req.Kind, req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateValue(value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateTTLSeconds(req.TTLSeconds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := kv.SetOptions{TTL: time.Duration(req.TTLSeconds) * time.Second}
	if err := h.storage.Store().Set(r.Context(), key, value, opts); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "key set successfully",
	})
}

// Delete handles DELETE /api/v1/keys/{key}
func (h *KeyHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r)
	if !ok {
		return
	}

	value, found := h.storage.Store().Delete(r.Context(), key)
	if !found {
		writeError(w, http.StatusNotFound, "key not found")
		return
	}
	writeJSON(w, http.StatusOK, newKeyResponse(key, value))
}

// TTL handles GET /api/v1/keys/{key}/ttl
func (h *KeyHandlers) TTL(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r)
	if !ok {
		return
	}

	at, found := h.storage.Store().TimeToLive(r.Context(), key)
	if !found {
		writeError(w, http.StatusNotFound, "key not found or has no expiration")
		return
	}
	writeJSON(w, http.StatusOK, TTLResponse{Status: "success", Key: key, ExpiresAt: int64(at)})
}

// Expire handles POST /api/v1/keys/{key}/expire
func (h *KeyHandlers) Expire(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r)
	if !ok {
		return
	}

	var req ExpireRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Seconds == nil {
		writeError(w, http.StatusBadRequest, "seconds is required")
		return
	}
	if err := validation.ValidateExpireSeconds(*req.Seconds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	store := h.storage.Store()
	at := store.Now() + kv.Timestamp(*req.Seconds*1000)
	if !store.SetExpiration(r.Context(), key, at) {
		writeError(w, http.StatusNotFound, "key not found")
		return
	}
	writeJSON(w, http.StatusOK, TTLResponse{Status: "success", Key: key, ExpiresAt: int64(at)})
}

func pathKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.PathValue("key")
	if err := validation.ValidateKey(key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return key, true
}

func newKeyResponse(key string, v kv.Value) KeyResponse {
	resp := KeyResponse{Status: "success", Key: key, Kind: v.Kind().String()}
	switch v.Kind() {
	case kv.KindBytes:
		resp.Value = v.Bytes()
	case kv.KindInteger:
		resp.Value = v.Integer()
	case kv.KindBoolean:
		resp.Value = v.Boolean()
	default:
		resp.Value = v.Text()
	}
	return resp
}

// decodeValue converts a JSON value into a store value of the named kind
func decodeValue(kind string, raw json.RawMessage) (kv.Value, error) {
	k, err := kv.ParseKind(kind)
	if err != nil {
		return kv.Value{}, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return kv.Value{}, errors.New("value is required")
	}

	switch k {
	case kv.KindBytes:
		var b []byte
		if err := json.Unmarshal(raw, &b); err != nil {
			return kv.Value{}, fmt.Errorf("bytes value must be a base64 string: %w", err)
		}
		return kv.BytesValue(b), nil
	case kv.KindInteger:
		var i int64
		if err := json.Unmarshal(raw, &i); err != nil {
			return kv.Value{}, fmt.Errorf("integer value must be a 64-bit integer: %w", err)
		}
		return kv.IntegerValue(i), nil
	case kv.KindBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return kv.Value{}, fmt.Errorf("boolean value must be true or false: %w", err)
		}
		return kv.BooleanValue(b), nil
	default:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return kv.Value{}, fmt.Errorf("text value must be a string: %w", err)
		}
		return kv.TextValue(s), nil
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	var invalidKey kv.InvalidKeyError
	if errors.As(err, &invalidKey) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
