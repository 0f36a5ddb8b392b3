// Package litellm provisions subscription credentials as LiteLLM virtual keys.
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/config"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

const (
	defaultTimeout = 30 * time.Second
	// Maximum response body size read from the key API (1MB)
	maxResponseSize = 1 << 20

	OpCreate  = "create"
	OpUpdate  = "update"
	OpDisable = "disable"
	OpInfo    = "info"
	OpDelete  = "delete"
)

// ProvisionerError wraps every failed key API call. StatusCode is zero for transport errors.
type ProvisionerError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ProvisionerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("litellm %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("litellm %s failed: %v", e.Op, e.Err)
}

func (e *ProvisionerError) Unwrap() error {
	return e.Err
}

// RequestRecorder counts key API calls by operation and result.
type RequestRecorder interface {
	RecordProvisionerRequest(op, result string)
}

type nopRequestRecorder struct{}

func (nopRequestRecorder) RecordProvisionerRequest(string, string) {}

// KeyProvisioner implements subscription.EntitlementProvisioner against the LiteLLM proxy.
type KeyProvisioner struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	recorder   RequestRecorder
	logger     logger.Interface
	now        func() time.Time
}

var _ subscription.EntitlementProvisioner = (*KeyProvisioner)(nil)

func NewKeyProvisioner(cfg config.ProvisionerConfig, recorder RequestRecorder, logger logger.Interface) *KeyProvisioner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if recorder == nil {
		recorder = nopRequestRecorder{}
	}
	return &KeyProvisioner{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		recorder: recorder,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Enabled reports whether a backend is configured. When it is not, every call is a no-op.
func (p *KeyProvisioner) Enabled() bool {
	return p.baseURL != "" && p.apiKey != ""
}

type keyMetadata struct {
	UserEmail  string `json:"user_email,omitempty"`
	PlanID     string `json:"plan_id,omitempty"`
	PlanName   string `json:"plan_name,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
	Disabled   bool   `json:"disabled,omitempty"`
	DisabledAt string `json:"disabled_at,omitempty"`
}

type generateKeyRequest struct {
	UserID              string      `json:"user_id"`
	KeyAlias            string      `json:"key_alias"`
	Metadata            keyMetadata `json:"metadata"`
	Models              []string    `json:"models"`
	RPMLimit            int         `json:"rpm_limit"`
	MaxParallelRequests int         `json:"max_parallel_requests"`
}

type generateKeyResponse struct {
	Key string `json:"key"`
}

func (r *generateKeyResponse) validate() error {
	if r.Key == "" {
		return errors.New("response has no key")
	}
	return nil
}

// responseValidator is implemented by responses that can be well-formed JSON yet unusable.
type responseValidator interface {
	validate() error
}

type updateKeyRequest struct {
	Key                 string      `json:"key"`
	Models              []string    `json:"models"`
	RPMLimit            int         `json:"rpm_limit"`
	MaxParallelRequests int         `json:"max_parallel_requests"`
	Metadata            keyMetadata `json:"metadata"`
}

type deleteKeyRequest struct {
	Keys []string `json:"keys"`
}

type keyInfo struct {
	Models              []string    `json:"models"`
	RPMLimit            *int        `json:"rpm_limit"`
	MaxParallelRequests *int        `json:"max_parallel_requests"`
	Blocked             *bool       `json:"blocked"`
	Metadata            keyMetadata `json:"metadata"`
}

type keyInfoResponse struct {
	Key  string  `json:"key"`
	Info keyInfo `json:"info"`
}

func (p *KeyProvisioner) Create(ctx context.Context, spec subscription.CredentialSpec) (string, error) {
	if !p.Enabled() {
		p.logger.Warnw("provisioner not configured, skipping key creation", "user_id", spec.UserID)
		return "", nil
	}

	models := spec.AllowedModels
	if models == nil {
		models = []string{}
	}
	body := generateKeyRequest{
		UserID:   spec.UserID,
		KeyAlias: "sub_" + spec.UserID,
		Metadata: keyMetadata{
			UserEmail: spec.UserEmail,
			PlanID:    spec.PlanID,
			PlanName:  spec.PlanName,
		},
		Models:              models,
		RPMLimit:            spec.RequestsPerMinute,
		MaxParallelRequests: spec.MaxParallelRequests,
	}

	var resp generateKeyResponse
	if err := p.do(ctx, OpCreate, http.MethodPost, "/key/generate", body, &resp); err != nil {
		return "", err
	}

	p.logger.Infow("virtual key created", "user_id", spec.UserID, "plan_id", spec.PlanID)
	return resp.Key, nil
}

func (p *KeyProvisioner) Update(ctx context.Context, credentialID string, spec subscription.CredentialSpec) error {
	if !p.Enabled() || credentialID == "" {
		return nil
	}

	models := spec.AllowedModels
	if models == nil {
		models = []string{}
	}
	body := updateKeyRequest{
		Key:                 credentialID,
		Models:              models,
		RPMLimit:            spec.RequestsPerMinute,
		MaxParallelRequests: spec.MaxParallelRequests,
		Metadata: keyMetadata{
			PlanID:    spec.PlanID,
			PlanName:  spec.PlanName,
			UpdatedAt: p.now().Format(time.RFC3339),
		},
	}

	if err := p.do(ctx, OpUpdate, http.MethodPost, "/key/update", body, nil); err != nil {
		return err
	}
	p.logger.Infow("virtual key updated", "plan_id", spec.PlanID)
	return nil
}

func (p *KeyProvisioner) Disable(ctx context.Context, credentialID string) error {
	if !p.Enabled() || credentialID == "" {
		return nil
	}

	body := updateKeyRequest{
		Key:    credentialID,
		Models: []string{},
		Metadata: keyMetadata{
			Disabled:   true,
			DisabledAt: p.now().Format(time.RFC3339),
		},
	}

	if err := p.do(ctx, OpDisable, http.MethodPost, "/key/update", body, nil); err != nil {
		return err
	}
	p.logger.Infow("virtual key disabled")
	return nil
}

func (p *KeyProvisioner) Info(ctx context.Context, credentialID string) (*subscription.CredentialInfo, error) {
	if !p.Enabled() || credentialID == "" {
		return nil, nil
	}

	var resp keyInfoResponse
	path := "/key/info?key=" + url.QueryEscape(credentialID)
	if err := p.do(ctx, OpInfo, http.MethodGet, path, nil, &resp); err != nil {
		var perr *ProvisionerError
		if errors.As(err, &perr) && perr.StatusCode == http.StatusNotFound {
			return nil, subscription.ErrCredentialNotFound
		}
		return nil, err
	}

	info := &subscription.CredentialInfo{
		ID:            credentialID,
		AllowedModels: resp.Info.Models,
		Disabled:      resp.Info.Metadata.Disabled,
	}
	if resp.Info.RPMLimit != nil {
		info.RequestsPerMinute = *resp.Info.RPMLimit
	}
	if resp.Info.MaxParallelRequests != nil {
		info.MaxParallelRequests = *resp.Info.MaxParallelRequests
	}
	if resp.Info.Blocked != nil && *resp.Info.Blocked {
		info.Disabled = true
	}
	return info, nil
}

// Delete removes the key outright. The ledger never calls it; it backs operator tooling.
func (p *KeyProvisioner) Delete(ctx context.Context, credentialID string) error {
	if !p.Enabled() || credentialID == "" {
		return nil
	}
	if err := p.do(ctx, OpDelete, http.MethodPost, "/key/delete", deleteKeyRequest{Keys: []string{credentialID}}, nil); err != nil {
		return err
	}
	p.logger.Infow("virtual key deleted")
	return nil
}

func (p *KeyProvisioner) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	err := p.send(ctx, op, method, path, body, out)
	if err != nil {
		p.recorder.RecordProvisionerRequest(op, "error")
		p.logger.Warnw("key API call failed", "op", op, "error", err)
		return err
	}
	p.recorder.RecordProvisionerRequest(op, "ok")
	return nil
}

func (p *KeyProvisioner) send(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &ProvisionerError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return &ProvisionerError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &ProvisionerError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &ProvisionerError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProvisionerError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(respBody)))}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &ProvisionerError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	if v, ok := out.(responseValidator); ok {
		if err := v.validate(); err != nil {
			return &ProvisionerError{Op: op, StatusCode: resp.StatusCode, Err: err}
		}
	}
	return nil
}
