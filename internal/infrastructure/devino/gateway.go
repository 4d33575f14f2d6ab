package devino

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-verify-api/internal/config"
	"github.com/go-verify-api/internal/domain"
)

// Gateway sends templated instant messages through the Devino Online API.
// It is the preferred channel; any non-"OK" provider code or transport error
// makes the caller fall back to SMS.
type Gateway struct {
	endpoint string
	token    string
	service  string
	sender   string
	client   *http.Client
}

func NewGateway(cfg *config.Config) *Gateway {
	return &Gateway{
		endpoint: cfg.DevinoEndpoint,
		token:    cfg.DevinoToken,
		service:  cfg.DevinoService,
		sender:   cfg.DevinoSender,
		// Timeout bounds the whole exchange; the request context can cut it shorter.
		client: &http.Client{Timeout: cfg.GatewayTimeout},
	}
}

type message struct {
	DeliveryPolicy string            `json:"deliveryPolicy"`
	Phone          string            `json:"phone"`
	Routes         []string          `json:"routes"`
	Service        string            `json:"service"`
	From           string            `json:"from,omitempty"`
	Template       string            `json:"tmpl"`
	TemplateData   map[string]string `json:"tmplData"`
	TTL            int               `json:"ttl"`
}

type result struct {
	Result []struct {
		MessageID string `json:"messageId"`
		Code      string `json:"code"`
	} `json:"result"`
}

// SendTemplated sends one templated message. Caller parameters are projected
// against the template's declared names before hitting the wire; unknown
// keys never leave the process.
func (g *Gateway) SendTemplated(ctx context.Context, phone string, template domain.TemplateID, params map[string]string) (*domain.DeliveryReceipt, error) {
	tmplData, err := domain.ProjectParams(template, params)
	if err != nil {
		return nil, err
	}

	payload := []message{{
		DeliveryPolicy: "ANY",
		Phone:          phone,
		Routes:         []string{"IM"},
		Service:        g.service,
		From:           g.sender,
		Template:       string(template),
		TemplateData:   tmplData,
		TTL:            600,
	}}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/im/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Key "+g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("push gateway: status %d: %s", resp.StatusCode, b)
	}

	var res result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("push gateway: decode response: %w", err)
	}
	if len(res.Result) == 0 {
		return nil, fmt.Errorf("push gateway: empty result")
	}
	return &domain.DeliveryReceipt{
		MessageID:  res.Result[0].MessageID,
		StatusCode: res.Result[0].Code,
	}, nil
}
