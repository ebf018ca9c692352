package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/anonto42/henstagram/backend/internal/models"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	// DefaultEndpoint is the Expo push gateway.
	DefaultEndpoint = "https://exp.host/--/api/v2/push/send"
	// MaxBatchSize is the most messages the gateway accepts per request.
	MaxBatchSize = 100

	defaultTimeout = 15 * time.Second
)

// HTTPError is returned when the gateway answers with a non-2xx status.
// Body holds the compacted JSON error body, or the raw text when the body is
// not JSON, or nothing when it could not be read.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("expo HTTP error %d: %s", e.StatusCode, e.Body)
}

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	Endpoint    string
	AccessToken string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// Client delivers notification messages to the Expo push gateway.
type Client struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
	logger      *log.Logger
}

// NewClient creates a new Client
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		endpoint:    endpoint,
		accessToken: cfg.AccessToken,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// Send delivers messages in batches of at most MaxBatchSize, in input order.
//
// A non-2xx answer or a transport failure aborts the remaining batches and is
// returned. Tickets the gateway marks as errors, and 2xx answers without a
// readable ticket list, are only logged: push delivery is best effort.
func (c *Client) Send(ctx context.Context, messages []models.PushMessage) error {
	_, err := c.SendWithTickets(ctx, messages)
	return err
}

// SendWithTickets behaves like Send and also returns the decoded ticket of
// every message sent so far, in input order. A nil entry means the gateway
// did not report an outcome for that message.
func (c *Client) SendWithTickets(ctx context.Context, messages []models.PushMessage) ([]models.PushTicket, error) {
	if len(messages) == 0 {
		c.logger.Println("[push] no messages to send")
		return nil, nil
	}

	sendID := uuid.NewString()
	total := (len(messages) + MaxBatchSize - 1) / MaxBatchSize
	tickets := make([]models.PushTicket, 0, len(messages))

	batch := 0
	for chunk := range slices.Chunk(messages, MaxBatchSize) {
		batch++
		c.logger.Printf("[push] %s: sending batch %d/%d of %d", sendID, batch, total, len(chunk))

		resp, err := c.post(ctx, chunk)
		if err != nil {
			return tickets, err
		}

		chunkTickets := make([]models.PushTicket, len(chunk))
		if resp == nil || len(resp.Data) == 0 {
			c.logger.Printf("[push] %s: unexpected expo response (no data): %s", sendID, describe(resp))
			tickets = append(tickets, chunkTickets...)
			continue
		}

		var rejected []models.RawTicket
		for i, raw := range resp.Data {
			if raw.Status == models.TicketStatusError {
				rejected = append(rejected, raw)
			}
			if i < len(chunkTickets) {
				chunkTickets[i] = raw.Decode()
			}
		}
		tickets = append(tickets, chunkTickets...)

		if len(rejected) > 0 {
			c.logger.Printf("[push] %s: expo ticket errors: %s", sendID, describe(rejected))
		} else {
			c.logger.Printf("[push] %s: batch %d accepted by expo", sendID, batch)
		}
	}
	return tickets, nil
}

// post sends one batch. A nil response with a nil error means the gateway
// answered 2xx but the body could not be used.
func (c *Client) post(ctx context.Context, chunk []models.PushMessage) (*models.PushResponse, error) {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return nil, fmt.Errorf("failed to encode push batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("expo request failed: %w", err)
	}
	defer res.Body.Close()

	body, readErr := readBody(res)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: errorBody(body, readErr)}
	}

	if readErr != nil {
		c.logger.Printf("[push] warning: could not read expo response: %v", readErr)
		return nil, nil
	}
	var parsed models.PushResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Printf("[push] warning: could not parse expo response: %v", err)
		return nil, nil
	}
	return &parsed, nil
}

// readBody reads the response, decoding it when the gateway compressed it.
// Setting Accept-Encoding by hand turns off the transport's own decompression.
func readBody(res *http.Response) ([]byte, error) {
	var r io.Reader = res.Body
	switch strings.ToLower(strings.TrimSpace(res.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(res.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case "deflate":
		zr, err := zlib.NewReader(res.Body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}
	return io.ReadAll(r)
}

func errorBody(body []byte, readErr error) string {
	if readErr != nil {
		return ""
	}
	if json.Valid(body) {
		var compact bytes.Buffer
		if err := json.Compact(&compact, body); err == nil {
			return compact.String()
		}
	}
	return string(body)
}

func describe(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(out)
}
