// Package supabase implementa el almacén remoto sobre un proyecto Supabase:
// PostgREST para lectura/escritura y Realtime (websocket Phoenix) para los cambios.
package supabase

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

	"github.com/jhoicas/Enrolement-api/internal/domain"
)

// Config acceso al proyecto.
type Config struct {
	URL        string
	APIKey     string
	Table      string
	HTTPClient *http.Client
}

// restClient cliente PostgREST mínimo para una tabla.
type restClient struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient *http.Client
}

func newRESTClient(cfg Config) (*restClient, error) {
	if cfg.URL == "" {
		return nil, errors.New("supabase: URL es obligatoria")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("supabase: APIKey es obligatoria")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &restClient{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		table:      cfg.Table,
		httpClient: httpClient,
	}, nil
}

// do ejecuta la petición y decodifica la respuesta JSON en out (si no es nil).
func (c *restClient) do(ctx context.Context, op, method string, params url.Values, body any, out any) error {
	reqURL := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, c.table)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return domain.NewStoreError(domain.ErrUnknown, op, fmt.Errorf("marshal body: %w", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return domain.NewStoreError(domain.ErrUnknown, op, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewStoreError(domain.ErrNetwork, op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewStoreError(domain.ErrNetwork, op, fmt.Errorf("leer respuesta: %w", err))
	}
	if resp.StatusCode >= 300 {
		return domain.NewStoreError(kindForStatus(resp.StatusCode), op, apiError(resp.StatusCode, respBody))
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return domain.NewStoreError(domain.ErrUnknown, op, fmt.Errorf("decodificar respuesta: %w", err))
		}
	}
	return nil
}

// kindForStatus clase de fallo según el estado HTTP de PostgREST.
func kindForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return domain.ErrRemoteValidation
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return domain.ErrNetwork
	default:
		return domain.ErrUnknown
	}
}

// apiError conserva el mensaje de PostgREST tal cual cuando viene en el cuerpo.
func apiError(status int, body []byte) error {
	var pgrst struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(body, &pgrst); err == nil && pgrst.Message != "" {
		if pgrst.Code != "" {
			return fmt.Errorf("HTTP %d: %s (%s)", status, pgrst.Message, pgrst.Code)
		}
		return fmt.Errorf("HTTP %d: %s", status, pgrst.Message)
	}
	return fmt.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(body)))
}
