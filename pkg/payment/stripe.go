package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"drxcare/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var stripeTracer = otel.Tracer("drxcare.pkg.payment.stripe")

const (
	defaultStripeBaseURL    = "https://api.stripe.com"
	defaultStripeAPIVersion = "2024-06-20"
	maxErrorBody            = 8192
)

// StripeError is a non-2xx answer of the Stripe API.
type StripeError struct {
	StatusCode int
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *StripeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: status %d: %s (%s)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("stripe: status %d: %s", e.StatusCode, e.Message)
}

// StripeClient talks to the Stripe REST API with form-encoded requests.
// Holds are PaymentIntents created with capture_method=manual.
type StripeClient struct {
	secretKey  string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	log        *logger.Logger
	dryRun     bool
}

var _ Processor = (*StripeClient)(nil)

func NewStripeClient(secretKey string, log *logger.Logger) *StripeClient {
	if log == nil {
		log = logger.Discard()
	}
	return &StripeClient{
		secretKey:  secretKey,
		baseURL:    defaultStripeBaseURL,
		apiVersion: defaultStripeAPIVersion,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.Component("stripe"),
	}
}

// WithBaseURL overrides the API base URL.
func (c *StripeClient) WithBaseURL(baseURL string) *StripeClient {
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

func (c *StripeClient) WithAPIVersion(version string) *StripeClient {
	if version != "" {
		c.apiVersion = version
	}
	return c
}

// WithDryRun makes every call succeed locally without contacting Stripe.
// Dry-run intents are immediately capturable.
func (c *StripeClient) WithDryRun(enabled bool) *StripeClient {
	c.dryRun = enabled
	return c
}

// WithTimeout bounds every single Stripe request.
func (c *StripeClient) WithTimeout(d time.Duration) *StripeClient {
	if d > 0 {
		c.httpClient.Timeout = d
	}
	return c
}

func (c *StripeClient) WithHTTPClient(hc *http.Client) *StripeClient {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// CreateHold creates (or reuses) the customer, an ephemeral key for the
// mobile SDK and a manual-capture PaymentIntent.
func (c *StripeClient) CreateHold(ctx context.Context, params HoldParams) (*Hold, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.create_hold", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("drxcare.doctor_id", params.DoctorID),
		attribute.Int64("drxcare.amount", params.Amount),
		attribute.String("drxcare.currency", params.Currency),
	)

	if params.Amount <= 0 {
		return nil, errors.New("payment: amount must be positive")
	}
	if params.Currency == "" {
		return nil, errors.New("payment: currency required")
	}

	if c.dryRun {
		suffix := uuid.NewString()[:8]
		c.log.Info("Stripe dry run: skipping hold creation",
			"doctor_id", params.DoctorID,
			"patient_id", params.PatientID,
			"amount", params.Amount,
		)
		customer := params.CustomerRef
		if customer == "" {
			customer = "cus_dryrun_" + suffix
		}
		return &Hold{
			IntentID:     "pi_dryrun_" + suffix,
			ClientSecret: "pi_dryrun_" + suffix + "_secret_dryrun",
			EphemeralKey: "ek_dryrun_" + suffix,
			CustomerRef:  customer,
			Status:       StatusRequiresPaymentMethod,
		}, nil
	}

	customer := params.CustomerRef
	if customer == "" {
		form := url.Values{}
		form.Set("metadata[patient_id]", params.PatientID)
		var created struct {
			ID string `json:"id"`
		}
		if err := c.post(ctx, "/v1/customers", form, idempotencyKey(params.IdempotencyKey, "customer"), &created); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "create customer")
			return nil, fmt.Errorf("payment: create customer: %w", err)
		}
		customer = created.ID
	}

	keyForm := url.Values{}
	keyForm.Set("customer", customer)
	var key struct {
		Secret string `json:"secret"`
	}
	if err := c.post(ctx, "/v1/ephemeral_keys", keyForm, "", &key); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create ephemeral key")
		return nil, fmt.Errorf("payment: create ephemeral key: %w", err)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.Amount, 10))
	form.Set("currency", strings.ToLower(params.Currency))
	form.Set("customer", customer)
	form.Set("capture_method", "manual")
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("metadata[doctor_id]", params.DoctorID)
	form.Set("metadata[patient_id]", params.PatientID)
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var intent struct {
		ID           string       `json:"id"`
		ClientSecret string       `json:"client_secret"`
		Status       IntentStatus `json:"status"`
	}
	if err := c.post(ctx, "/v1/payment_intents", form, idempotencyKey(params.IdempotencyKey, "intent"), &intent); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create payment intent")
		return nil, fmt.Errorf("payment: create payment intent: %w", err)
	}
	if intent.ID == "" || intent.ClientSecret == "" {
		return nil, errors.New("payment: stripe response missing intent id or client secret")
	}
	span.SetAttributes(attribute.String("drxcare.payment_intent_id", intent.ID))

	return &Hold{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		EphemeralKey: key.Secret,
		CustomerRef:  customer,
		Status:       intent.Status,
	}, nil
}

func (c *StripeClient) Retrieve(ctx context.Context, intentID string) (*Intent, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.retrieve_intent", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("drxcare.payment_intent_id", intentID))

	if c.dryRun {
		return &Intent{ID: intentID, Status: StatusRequiresCapture}, nil
	}

	var intent Intent
	if err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil, "", &intent); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("payment: retrieve intent: %w", err)
	}
	return &intent, nil
}

func (c *StripeClient) Capture(ctx context.Context, intentID string) (*Intent, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.capture_intent", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("drxcare.payment_intent_id", intentID))

	if c.dryRun {
		return &Intent{ID: intentID, Status: StatusSucceeded}, nil
	}

	var intent Intent
	if err := c.post(ctx, "/v1/payment_intents/"+url.PathEscape(intentID)+"/capture", url.Values{}, idempotencyKey(intentID, "capture"), &intent); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("payment: capture intent: %w", err)
	}
	return &intent, nil
}

func (c *StripeClient) Cancel(ctx context.Context, intentID string) (*Intent, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.cancel_intent", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("drxcare.payment_intent_id", intentID))

	if c.dryRun {
		return &Intent{ID: intentID, Status: StatusCanceled}, nil
	}

	var intent Intent
	if err := c.post(ctx, "/v1/payment_intents/"+url.PathEscape(intentID)+"/cancel", url.Values{}, idempotencyKey(intentID, "cancel"), &intent); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("payment: cancel intent: %w", err)
	}
	return &intent, nil
}

func (c *StripeClient) post(ctx context.Context, path string, form url.Values, idemKey string, out any) error {
	return c.do(ctx, http.MethodPost, path, form, idemKey, out)
}

func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values, idemKey string, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Stripe-Version", c.apiVersion)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return readStripeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func readStripeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var parsed struct {
		Error StripeError `json:"error"`
	}
	stripeErr := &StripeError{StatusCode: resp.StatusCode}
	if json.Unmarshal(data, &parsed) == nil && parsed.Error.Message != "" {
		stripeErr.Type = parsed.Error.Type
		stripeErr.Code = parsed.Error.Code
		stripeErr.Message = parsed.Error.Message
		return stripeErr
	}
	stripeErr.Message = strings.TrimSpace(string(data))
	if stripeErr.Message == "" {
		stripeErr.Message = http.StatusText(resp.StatusCode)
	}
	return stripeErr
}

func idempotencyKey(base, op string) string {
	if base == "" {
		return ""
	}
	return base + ":" + op
}
