// Package noren is a client for the Shoonya (Noren) trading API.
// It mirrors the vendor's route layout, jData/jKey request envelope,
// session-token handling, and the endpoint methods the scanner and
// backtester need: login, quotes, historical series, contract search,
// and order placement.
//
// Usage:
//
//	nc := noren.New(noren.Config{UserID: "FA0001", Password: "...", ...})
//	if err := nc.Login(ctx); err != nil { log.Fatal(err) }
//	q, err := nc.GetQuote(ctx, "NSE", "22")
package noren

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/anil-lina/techbot/internal/model"
)

// Sentinel errors for the two failure classes callers branch on.
var (
	// ErrAuth marks login/session failures. Fatal at process start;
	// the core cannot run without data access.
	ErrAuth = errors.New("noren: authentication failed")

	// ErrNoData marks an empty quote or series response. Callers skip
	// the instrument and continue.
	ErrNoData = errors.New("noren: no data")
)

const (
	defaultHost = "https://api.shoonya.com/NorenWClientTP/"
	defaultWS   = "wss://api.shoonya.com/NorenWSTP/"

	apkVersion = "1.0.0"
	source     = "API"
)

var routes = map[string]string{
	"login":       "QuickAuth",
	"logout":      "Logout",
	"quote":       "GetQuotes",
	"search":      "SearchScrip",
	"tpseries":    "TPSeries",
	"placeorder":  "PlaceOrder",
	"cancelorder": "CancelOrder",
	"orderbook":   "OrderBook",
	"limits":      "Limits",
}

// Config holds credentials and connection settings.
type Config struct {
	UserID     string
	Password   string
	VendorCode string
	APIKey     string
	IMEI       string
	TOTPSecret string // base32 secret; the 2FA code is generated per login

	BaseURL string        // default: Shoonya production
	WSURL   string        // default: Shoonya websocket
	Timeout time.Duration // default: 7s
	Debug   bool
}

// Client is a Shoonya REST client. Safe for concurrent use after Login.
type Client struct {
	cfg        Config
	httpClient *http.Client
	token      string
	accountID  string
	log        *slog.Logger
}

// New creates a client; call Login before any data or order method.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultHost
	}
	if cfg.WSURL == "" {
		cfg.WSURL = defaultWS
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 7 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        slog.Default().With(slog.String("component", "noren")),
	}
}

// Login authenticates via QuickAuth: SHA-256 password, SHA-256
// uid|apikey app key, and a fresh TOTP second factor. On success the
// session token is kept for subsequent jKey envelopes.
func (c *Client) Login(ctx context.Context) error {
	code, err := totp.GenerateCode(c.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("%w: totp generation: %v", ErrAuth, err)
	}

	payload := map[string]string{
		"source":     source,
		"apkversion": apkVersion,
		"uid":        c.cfg.UserID,
		"pwd":        sha256hex(c.cfg.Password),
		"factor2":    code,
		"vc":         c.cfg.VendorCode,
		"appkey":     sha256hex(c.cfg.UserID + "|" + c.cfg.APIKey),
		"imei":       c.cfg.IMEI,
	}

	var resp loginResponse
	if err := c.post(ctx, "login", payload, "", &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if resp.Stat != statOK || resp.SessionToken == "" {
		return fmt.Errorf("%w: %s", ErrAuth, resp.EMsg)
	}

	c.token = resp.SessionToken
	c.accountID = c.cfg.UserID
	c.log.Info("login successful", "uid", c.cfg.UserID)
	return nil
}

// SessionToken returns the current session token (empty before Login).
// The websocket feed needs it for its connect frame.
func (c *Client) SessionToken() string { return c.token }

// GetQuote fetches the last traded price for an instrument token.
func (c *Client) GetQuote(ctx context.Context, exchange, token string) (model.Quote, error) {
	payload := map[string]string{"uid": c.cfg.UserID, "exch": exchange, "token": token}

	var resp quoteResponse
	if err := c.post(ctx, "quote", payload, c.token, &resp); err != nil {
		return model.Quote{}, err
	}
	if resp.Stat != statOK {
		return model.Quote{}, fmt.Errorf("%w: quote %s:%s: %s", ErrNoData, exchange, token, resp.EMsg)
	}
	lp, err := strconv.ParseFloat(resp.LastPrice, 64)
	if err != nil || lp == 0 {
		return model.Quote{}, fmt.Errorf("%w: quote %s:%s has no last price", ErrNoData, exchange, token)
	}
	ls, _ := strconv.Atoi(resp.LotSize)
	return model.Quote{
		Exchange:      resp.Exchange,
		Token:         resp.Token,
		TradingSymbol: resp.TradingSymbol,
		LastPrice:     lp,
		LotSize:       ls,
	}, nil
}

// GetTimeSeries fetches interval candles for [start, end]. Records that
// fail parsing are dropped and the result is sorted ascending; callers
// normalize duplicates away. Returns ErrNoData for an empty series.
func (c *Client) GetTimeSeries(ctx context.Context, exchange, token string, start, end time.Time, intervalMinutes int) ([]model.Candle, error) {
	payload := map[string]string{
		"uid":   c.cfg.UserID,
		"exch":  exchange,
		"token": token,
		"st":    strconv.FormatInt(start.Unix(), 10),
		"et":    strconv.FormatInt(end.Unix(), 10),
		"intrv": strconv.Itoa(intervalMinutes),
	}

	var records []tpRecord
	if err := c.post(ctx, "tpseries", payload, c.token, &records); err != nil {
		return nil, err
	}

	candles := make([]model.Candle, 0, len(records))
	for _, r := range records {
		if r.Stat != statOK {
			continue
		}
		candle, err := r.toCandle()
		if err != nil {
			c.log.Warn("dropping malformed candle record", "token", token, "time", r.Time, "err", err)
			continue
		}
		candles = append(candles, candle)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: series %s:%s", ErrNoData, exchange, token)
	}

	sort.SliceStable(candles, func(i, j int) bool { return candles[i].TS.Before(candles[j].TS) })
	return candles, nil
}

// SearchContracts queries the contract master. Candidates with an
// unparseable expiry or a non-numeric strike are dropped, never fatal.
// An empty pool is a valid response (nil error).
func (c *Client) SearchContracts(ctx context.Context, exchange, query string) ([]model.Contract, error) {
	payload := map[string]string{"uid": c.cfg.UserID, "exch": exchange, "stext": query}

	var resp searchResponse
	if err := c.post(ctx, "search", payload, c.token, &resp); err != nil {
		return nil, err
	}
	if resp.Stat != statOK {
		// "no matching scrip" comes back as stat Not_Ok.
		return nil, nil
	}

	contracts := make([]model.Contract, 0, len(resp.Values))
	for _, v := range resp.Values {
		contract, err := v.toContract()
		if err != nil {
			c.log.Warn("dropping malformed contract record", "tsym", v.TradingSymbol, "err", err)
			continue
		}
		contracts = append(contracts, contract)
	}
	return contracts, nil
}

// PlaceOrder submits an order and returns the broker order number.
func (c *Client) PlaceOrder(ctx context.Context, req model.OrderRequest) (string, error) {
	side := "B"
	if req.Side == model.SignalSell {
		side = "S"
	}
	prd := req.ProductType
	if prd == "" {
		prd = "I"
	}
	prctyp := req.OrderType
	if prctyp == "" {
		prctyp = "MKT"
	}

	payload := map[string]string{
		"uid":      c.cfg.UserID,
		"actid":    c.accountID,
		"exch":     req.Exchange,
		"tsym":     req.TradingSymbol,
		"qty":      strconv.FormatInt(req.Qty, 10),
		"dscqty":   "0",
		"prd":      prd,
		"trantype": side,
		"prctyp":   prctyp,
		"prc":      strconv.FormatFloat(req.Price, 'f', 2, 64),
		"ret":      "DAY",
		"remarks":  req.Remarks,
	}
	if req.TriggerPrice > 0 {
		payload["trgprc"] = strconv.FormatFloat(req.TriggerPrice, 'f', 2, 64)
	}

	var resp orderResponse
	if err := c.post(ctx, "placeorder", payload, c.token, &resp); err != nil {
		return "", err
	}
	if resp.Stat != statOK || resp.OrderNumber == "" {
		return "", fmt.Errorf("place order %s %s: %s", req.Side, req.TradingSymbol, resp.EMsg)
	}
	return resp.OrderNumber, nil
}

// post sends the Noren jData/jKey envelope and decodes the JSON reply
// into out (a struct pointer or a slice pointer for array endpoints).
func (c *Client) post(ctx context.Context, route string, payload map[string]string, key string, out any) error {
	uri, ok := routes[route]
	if !ok {
		return fmt.Errorf("noren: unknown route %q", route)
	}

	jdata, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	body := "jData=" + string(jdata)
	if key != "" {
		body += "&jKey=" + key
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+uri, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if c.cfg.Debug {
		c.log.Debug("request", "route", route, "jData", string(jdata))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("noren %s: %w", route, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("noren %s: read body: %w", route, err)
	}
	if c.cfg.Debug {
		c.log.Debug("response", "route", route, "status", resp.StatusCode, "body", string(raw))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("noren %s: unexpected status %d", route, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("noren %s: decode: %w", route, err)
	}
	return nil
}

func sha256hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
