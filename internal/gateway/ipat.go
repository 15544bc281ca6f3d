// Package gateway implements the client for the external pari-mutuel betting
// service. Two operations: submit a bet-line batch and query the account
// balance. Submission is all-or-nothing at the protocol level; there is no
// partial success. Credentials pass through this package but are never
// logged.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/keibalab/autobet/internal/config"
	"github.com/keibalab/autobet/internal/domain"
)

// retSuccess is the gateway's success code.
const retSuccess = "0"

// IpatClient talks to the pari-mutuel gateway over HTTP.
type IpatClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewIpatClient constructs an IpatClient from the given config.
func NewIpatClient(cfg *config.GatewayConfig, logger *slog.Logger) *IpatClient {
	return &IpatClient{
		baseURL: cfg.APIURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Wire shapes
// ──────────────────────────────────────────────────────────────────────────────

type wireBetLine struct {
	Opdt      string `json:"opdt"`
	VenueCode string `json:"venue_code"`
	Rno       string `json:"rno"` // zero-padded 2 chars
	BetType   string `json:"bet_type"`
	Number    string `json:"number"`
	BetPrice  string `json:"bet_price"` // yen, as string
}

type submitRequest struct {
	TNCID    string        `json:"tncid"`
	TNCPW    string        `json:"tncpw"`
	BetLines []wireBetLine `json:"bet_lines"`
}

type balanceRequest struct {
	TNCID        string `json:"tncid"`
	TNCPW        string `json:"tncpw"`
	SubscriberNo string `json:"subscriber_no"`
	PIN          string `json:"pin"`
	PARSNo       string `json:"pars_no"`
}

type gatewayResponse struct {
	Ret     string          `json:"ret"`
	Msg     string          `json:"msg"`
	Results json.RawMessage `json:"results,omitempty"`
	domain.Balance
}

// ──────────────────────────────────────────────────────────────────────────────
// SubmitBets
// ──────────────────────────────────────────────────────────────────────────────

// SubmitBets sends the bet-line batch in one HTTP call. Success requires a
// 2xx status AND ret == "0"; any other ret surfaces as ErrGateway carrying
// the response message, and network failures wrap into ErrGateway too.
func (c *IpatClient) SubmitBets(ctx context.Context, creds domain.Credentials, lines []domain.IpatBetLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: empty bet line batch", domain.ErrGateway)
	}
	for _, l := range lines {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrGateway, err)
		}
	}

	req := submitRequest{
		TNCID:    creds.INetID,
		TNCPW:    creds.PIN,
		BetLines: make([]wireBetLine, len(lines)),
	}
	for i, l := range lines {
		req.BetLines[i] = wireBetLine{
			Opdt:      l.Opdt,
			VenueCode: l.VenueCode,
			Rno:       fmt.Sprintf("%02d", l.RaceNumber),
			BetType:   string(l.BetType),
			Number:    l.Number,
			BetPrice:  fmt.Sprintf("%d", l.AmountYen),
		}
	}

	resp, err := c.doPost(ctx, c.baseURL+"/bet", req)
	if err != nil {
		return err
	}
	if resp.Ret != retSuccess {
		return fmt.Errorf("%w: ret=%s msg=%s", domain.ErrGateway, resp.Ret, resp.Msg)
	}

	c.logger.Info("bets submitted", "lines", len(lines))
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// GetBalance
// ──────────────────────────────────────────────────────────────────────────────

// GetBalance queries the account's four balance figures, in integer yen.
func (c *IpatClient) GetBalance(ctx context.Context, creds domain.Credentials) (domain.Balance, error) {
	req := balanceRequest{
		TNCID:        creds.INetID,
		TNCPW:        creds.PIN,
		SubscriberNo: creds.SubscriberNo,
		PIN:          creds.PIN,
		PARSNo:       creds.PARSNo,
	}

	resp, err := c.doPost(ctx, c.baseURL+"/balance", req)
	if err != nil {
		return domain.Balance{}, err
	}
	if resp.Ret != retSuccess {
		return domain.Balance{}, fmt.Errorf("%w: ret=%s msg=%s", domain.ErrGateway, resp.Ret, resp.Msg)
	}
	return resp.Balance, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// HTTP helper
// ──────────────────────────────────────────────────────────────────────────────

// doPost sends a JSON POST and decodes the gateway envelope. The request
// body carries credentials and is never logged.
func (c *IpatClient) doPost(ctx context.Context, url string, payload any) (*gatewayResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %v", domain.ErrGateway, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "keiba-autobet/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http post: %v", domain.ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrGateway, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrGateway, err)
	}

	var out gatewayResponse
	if err = json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", domain.ErrGateway, err)
	}
	return &out, nil
}
