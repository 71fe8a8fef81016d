package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recordedRequest struct {
	Method  string
	Path    string
	Form    url.Values
	Headers http.Header
}

func newStripeServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		mu.Lock()
		requests = append(requests, recordedRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			Form:    r.PostForm,
			Headers: r.Header.Clone(),
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestStripeClient_CreateHold(t *testing.T) {
	srv, requests := newStripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/customers":
			json.NewEncoder(w).Encode(map[string]string{"id": "cus_123"})
		case "/v1/ephemeral_keys":
			json.NewEncoder(w).Encode(map[string]string{"secret": "ek_test_456"})
		case "/v1/payment_intents":
			json.NewEncoder(w).Encode(map[string]string{
				"id":            "pi_789",
				"client_secret": "pi_789_secret_abc",
				"status":        "requires_payment_method",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	client := NewStripeClient("sk_test_123", nil).WithBaseURL(srv.URL + "/")

	hold, err := client.CreateHold(context.Background(), HoldParams{
		IdempotencyKey: "hold-1",
		DoctorID:       "doc-1",
		PatientID:      "pat-1",
		Amount:         5000,
		Currency:       "USD",
		Metadata:       map[string]string{"slot_start": "2030-03-04T09:00:00Z"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hold.IntentID != "pi_789" || hold.ClientSecret != "pi_789_secret_abc" {
		t.Errorf("unexpected intent: %+v", hold)
	}
	if hold.EphemeralKey != "ek_test_456" || hold.CustomerRef != "cus_123" {
		t.Errorf("unexpected customer data: %+v", hold)
	}
	if hold.Status != StatusRequiresPaymentMethod {
		t.Errorf("expected status %s, got %s", StatusRequiresPaymentMethod, hold.Status)
	}

	if len(*requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(*requests))
	}

	for _, req := range *requests {
		if req.Method != http.MethodPost {
			t.Errorf("%s: expected POST, got %s", req.Path, req.Method)
		}
		if got := req.Headers.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("%s: unexpected auth header %q", req.Path, got)
		}
		if req.Headers.Get("Stripe-Version") == "" {
			t.Errorf("%s: missing Stripe-Version header", req.Path)
		}
		if got := req.Headers.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("%s: unexpected content type %q", req.Path, got)
		}
	}

	intentReq := (*requests)[2]
	checks := map[string]string{
		"amount":                             "5000",
		"currency":                           "usd",
		"customer":                           "cus_123",
		"capture_method":                     "manual",
		"automatic_payment_methods[enabled]": "true",
		"metadata[doctor_id]":                "doc-1",
		"metadata[patient_id]":               "pat-1",
		"metadata[slot_start]":               "2030-03-04T09:00:00Z",
	}
	for key, want := range checks {
		if got := intentReq.Form.Get(key); got != want {
			t.Errorf("form %s: expected %q, got %q", key, want, got)
		}
	}
	if got := intentReq.Headers.Get("Idempotency-Key"); got != "hold-1:intent" {
		t.Errorf("expected idempotency key hold-1:intent, got %q", got)
	}
}

func TestStripeClient_CreateHold_ReusesCustomer(t *testing.T) {
	srv, requests := newStripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/ephemeral_keys":
			json.NewEncoder(w).Encode(map[string]string{"secret": "ek_1"})
		case "/v1/payment_intents":
			json.NewEncoder(w).Encode(map[string]string{"id": "pi_1", "client_secret": "pi_1_secret"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	client := NewStripeClient("sk_test", nil).WithBaseURL(srv.URL)
	hold, err := client.CreateHold(context.Background(), HoldParams{
		CustomerRef: "cus_existing",
		DoctorID:    "doc-1",
		PatientID:   "pat-1",
		Amount:      100,
		Currency:    "eur",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hold.CustomerRef != "cus_existing" {
		t.Errorf("expected reused customer, got %s", hold.CustomerRef)
	}
	if len(*requests) != 2 {
		t.Errorf("expected 2 requests, got %d", len(*requests))
	}
	if got := (*requests)[1].Headers.Get("Idempotency-Key"); got != "" {
		t.Errorf("expected no idempotency key without base key, got %q", got)
	}
}

func TestStripeClient_CreateHold_InvalidParams(t *testing.T) {
	client := NewStripeClient("sk_test", nil).WithBaseURL("http://127.0.0.1:1")

	tests := []struct {
		name   string
		params HoldParams
	}{
		{"zero amount", HoldParams{Amount: 0, Currency: "usd"}},
		{"negative amount", HoldParams{Amount: -5, Currency: "usd"}},
		{"missing currency", HoldParams{Amount: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.CreateHold(context.Background(), tt.params); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStripeClient_ErrorResponse(t *testing.T) {
	srv, _ := newStripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	})

	client := NewStripeClient("sk_test", nil).WithBaseURL(srv.URL)
	_, err := client.CreateHold(context.Background(), HoldParams{
		CustomerRef: "cus_1",
		Amount:      100,
		Currency:    "usd",
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var stripeErr *StripeError
	if !errors.As(err, &stripeErr) {
		t.Fatalf("expected StripeError, got %T: %v", err, err)
	}
	if stripeErr.StatusCode != http.StatusPaymentRequired {
		t.Errorf("expected status 402, got %d", stripeErr.StatusCode)
	}
	if stripeErr.Code != "card_declined" || stripeErr.Type != "card_error" {
		t.Errorf("unexpected error fields: %+v", stripeErr)
	}
	if !strings.Contains(err.Error(), "Your card was declined.") {
		t.Errorf("expected message in error, got %q", err.Error())
	}
}

func TestStripeClient_ErrorResponse_UnparsedBody(t *testing.T) {
	srv, _ := newStripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client := NewStripeClient("sk_test", nil).WithBaseURL(srv.URL)
	_, err := client.Retrieve(context.Background(), "pi_1")

	var stripeErr *StripeError
	if !errors.As(err, &stripeErr) {
		t.Fatalf("expected StripeError, got %v", err)
	}
	if stripeErr.Message != http.StatusText(http.StatusBadGateway) {
		t.Errorf("unexpected message %q", stripeErr.Message)
	}
}

func TestStripeClient_IntentOperations(t *testing.T) {
	tests := []struct {
		name       string
		call       func(c *StripeClient) (*Intent, error)
		wantMethod string
		wantPath   string
		wantIdem   string
		respStatus IntentStatus
	}{
		{
			name:       "retrieve",
			call:       func(c *StripeClient) (*Intent, error) { return c.Retrieve(context.Background(), "pi_42") },
			wantMethod: http.MethodGet,
			wantPath:   "/v1/payment_intents/pi_42",
			respStatus: StatusRequiresCapture,
		},
		{
			name:       "capture",
			call:       func(c *StripeClient) (*Intent, error) { return c.Capture(context.Background(), "pi_42") },
			wantMethod: http.MethodPost,
			wantPath:   "/v1/payment_intents/pi_42/capture",
			wantIdem:   "pi_42:capture",
			respStatus: StatusSucceeded,
		},
		{
			name:       "cancel",
			call:       func(c *StripeClient) (*Intent, error) { return c.Cancel(context.Background(), "pi_42") },
			wantMethod: http.MethodPost,
			wantPath:   "/v1/payment_intents/pi_42/cancel",
			wantIdem:   "pi_42:cancel",
			respStatus: StatusCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, requests := newStripeServer(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"id":       "pi_42",
					"status":   tt.respStatus,
					"amount":   5000,
					"currency": "usd",
				})
			})

			client := NewStripeClient("sk_test", nil).WithBaseURL(srv.URL)
			intent, err := tt.call(client)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if intent.Status != tt.respStatus {
				t.Errorf("expected status %s, got %s", tt.respStatus, intent.Status)
			}
			if intent.Amount != 5000 {
				t.Errorf("expected amount 5000, got %d", intent.Amount)
			}

			req := (*requests)[0]
			if req.Method != tt.wantMethod {
				t.Errorf("expected method %s, got %s", tt.wantMethod, req.Method)
			}
			if req.Path != tt.wantPath {
				t.Errorf("expected path %s, got %s", tt.wantPath, req.Path)
			}
			if got := req.Headers.Get("Idempotency-Key"); got != tt.wantIdem {
				t.Errorf("expected idempotency key %q, got %q", tt.wantIdem, got)
			}
		})
	}
}

func TestStripeClient_DryRun(t *testing.T) {
	client := NewStripeClient("", nil).WithBaseURL("http://127.0.0.1:1").WithDryRun(true)
	ctx := context.Background()

	hold, err := client.CreateHold(ctx, HoldParams{DoctorID: "doc", PatientID: "pat", Amount: 100, Currency: "usd"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(hold.IntentID, "pi_dryrun_") || hold.ClientSecret == "" || hold.EphemeralKey == "" {
		t.Errorf("unexpected dry-run hold: %+v", hold)
	}

	intent, err := client.Retrieve(ctx, hold.IntentID)
	if err != nil || intent.Status != StatusRequiresCapture {
		t.Errorf("expected capturable intent, got %+v, %v", intent, err)
	}
	intent, err = client.Capture(ctx, hold.IntentID)
	if err != nil || intent.Status != StatusSucceeded {
		t.Errorf("expected succeeded intent, got %+v, %v", intent, err)
	}
	intent, err = client.Cancel(ctx, hold.IntentID)
	if err != nil || intent.Status != StatusCanceled {
		t.Errorf("expected canceled intent, got %+v, %v", intent, err)
	}
}

func TestIntentStatus(t *testing.T) {
	tests := []struct {
		status   IntentStatus
		terminal bool
		inFlight bool
	}{
		{StatusRequiresPaymentMethod, false, false},
		{StatusRequiresConfirmation, false, true},
		{StatusRequiresAction, false, true},
		{StatusProcessing, false, true},
		{StatusRequiresCapture, false, false},
		{StatusSucceeded, true, false},
		{StatusCanceled, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.status.InFlight(); got != tt.inFlight {
				t.Errorf("InFlight() = %v, want %v", got, tt.inFlight)
			}
		})
	}
}

func TestStripeClient_RetrieveLastPaymentError(t *testing.T) {
	srv, _ := newStripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "pi_42",
			"status": "requires_payment_method",
			"last_payment_error": {"type": "card_error", "code": "card_declined", "decline_code": "insufficient_funds", "message": "Your card has insufficient funds."}
		}`))
	})

	intent, err := NewStripeClient("sk_test", nil).WithBaseURL(srv.URL).Retrieve(context.Background(), "pi_42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.LastPaymentError == nil {
		t.Fatal("expected last payment error to be decoded")
	}
	if intent.LastPaymentError.DeclineCode != "insufficient_funds" {
		t.Errorf("expected decline code insufficient_funds, got %q", intent.LastPaymentError.DeclineCode)
	}
	if intent.AwaitingPayment() {
		t.Error("declined intent should not be awaiting payment")
	}
}

func TestIntent_AwaitingPayment(t *testing.T) {
	declined := &PaymentError{Code: "card_declined"}
	tests := []struct {
		name    string
		intent  Intent
		waiting bool
	}{
		{"fresh intent", Intent{Status: StatusRequiresPaymentMethod}, true},
		{"declined attempt", Intent{Status: StatusRequiresPaymentMethod, LastPaymentError: declined}, false},
		{"requires action", Intent{Status: StatusRequiresAction}, true},
		{"processing", Intent{Status: StatusProcessing}, true},
		{"requires capture", Intent{Status: StatusRequiresCapture}, false},
		{"canceled", Intent{Status: StatusCanceled}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.intent.AwaitingPayment(); got != tt.waiting {
				t.Errorf("AwaitingPayment() = %v, want %v", got, tt.waiting)
			}
		})
	}
}

func TestStripeClient_SpansOmitPatientIdentity(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	client := NewStripeClient("", nil).WithDryRun(true)
	if _, err := client.CreateHold(context.Background(), HoldParams{DoctorID: "doc", PatientID: "pat-secret", Amount: 100, Currency: "usd"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "stripe.create_hold" {
		t.Fatalf("expected one create_hold span, got %d", len(spans))
	}
	for _, kv := range spans[0].Attributes() {
		if strings.Contains(string(kv.Key), "patient") || kv.Value.Emit() == "pat-secret" {
			t.Errorf("span carries patient identity: %s=%s", kv.Key, kv.Value.Emit())
		}
	}
}
