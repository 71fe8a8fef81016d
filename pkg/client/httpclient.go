package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "drxcare/pkg/errors"
	"drxcare/pkg/model"
)

// HttpClient calls the bookings and verification HTTP APIs. Non-2xx answers
// are returned as *apperrors.AppError carrying the server's code and details.
type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewHttpClient(baseURL string) *HttpClient {
	return &HttpClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (c *HttpClient) OpenHold(ctx context.Context, req *model.HoldRequest, idempotencyKey string) (*model.HoldResult, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	return call[model.HoldResult](ctx, c, http.MethodPost, "/api/v1/holds", req, headers)
}

func (c *HttpClient) ConfirmHold(ctx context.Context, bookingID string) (*model.BookingStatusResult, error) {
	return call[model.BookingStatusResult](ctx, c, http.MethodPost, "/api/v1/holds/"+url.PathEscape(bookingID)+"/confirm", nil, nil)
}

func (c *HttpClient) CancelHold(ctx context.Context, bookingID, reason string) (*model.BookingStatusResult, error) {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	return call[model.BookingStatusResult](ctx, c, http.MethodPost, "/api/v1/holds/"+url.PathEscape(bookingID)+"/cancel", body, nil)
}

func (c *HttpClient) GetBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	return call[model.Booking](ctx, c, http.MethodGet, "/api/v1/holds/"+url.PathEscape(bookingID), nil, nil)
}

func (c *HttpClient) GetSlots(ctx context.Context, doctorID, date, timeZone string) (*model.AvailableSlots, error) {
	query := url.Values{"date": {date}}
	if timeZone != "" {
		query.Set("time_zone", timeZone)
	}
	path := "/api/v1/doctors/" + url.PathEscape(doctorID) + "/slots?" + query.Encode()
	return call[model.AvailableSlots](ctx, c, http.MethodGet, path, nil, nil)
}

func (c *HttpClient) UpdateVerification(ctx context.Context, userID string, status model.VerificationStatus) (*model.StatusUpdateResult, error) {
	body := model.StatusUpdateRequest{Status: string(status)}
	return call[model.StatusUpdateResult](ctx, c, http.MethodPut, "/api/v1/verification/"+url.PathEscape(userID), body, nil)
}

func (c *HttpClient) SyncVerification(ctx context.Context) (*model.SyncResult, error) {
	return call[model.SyncResult](ctx, c, http.MethodPost, "/api/v1/verification/sync", nil, nil)
}

// call performs the request and unwraps the {"data": ...} envelope into T.
func call[T any](ctx context.Context, c *HttpClient, method, path string, body any, headers map[string]string) (*T, error) {
	resp, err := c.request(ctx, method, path, body, headers)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp)
	}

	var envelope struct {
		Data T `json:"data"`
	}
	if err := resp.DecodeJSON(&envelope); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return &envelope.Data, nil
}

func (c *HttpClient) request(ctx context.Context, method, path string, body any, headers map[string]string) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Response: resp,
		Body:     respBody,
	}, nil
}

func decodeError(resp *Response) error {
	var errResp apperrors.ErrorResponse
	if err := resp.DecodeJSON(&errResp); err != nil || errResp.Code == "" {
		return apperrors.New(apperrors.CodeInternal, fmt.Sprintf("unexpected status %d", resp.StatusCode), resp.StatusCode)
	}
	return apperrors.New(errResp.Code, errResp.Message, resp.StatusCode).WithDetails(errResp.Details)
}

// WaitForHealthy polls /health until it answers 200 or ctx is done.
func (c *HttpClient) WaitForHealthy(ctx context.Context) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
		if err != nil {
			return err
		}
		resp, err := c.HTTPClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("service did not become healthy: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
