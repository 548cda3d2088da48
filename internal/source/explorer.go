package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolLedger/internal/model"
)

const (
	ExplorerSourceName = "explorer"

	defaultPageSize    = 1000
	defaultHTTPTimeout = 15 * time.Second
)

// ExplorerConfig holds the settings of a block-explorer source.
type ExplorerConfig struct {
	BaseURL  string
	APIKey   string
	Pair     common.Address
	PageSize int
}

// ExplorerSource reads pair logs from an Etherscan-compatible REST API.
type ExplorerSource struct {
	cfg    ExplorerConfig
	client *http.Client
	pacer  *Pacer
	logger *zap.Logger
}

// NewExplorerSource builds an ExplorerSource. A nil client gets a default
// with a timeout; a nil pacer disables pacing.
func NewExplorerSource(cfg ExplorerConfig, client *http.Client, pacer *Pacer, logger *zap.Logger) *ExplorerSource {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if pacer == nil {
		pacer = NewPacer(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return &ExplorerSource{cfg: cfg, client: client, pacer: pacer, logger: logger}
}

func (s *ExplorerSource) Name() string {
	return ExplorerSourceName
}

func (s *ExplorerSource) checkConfig() error {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return &ConfigError{Source: ExplorerSourceName, Err: ErrMissingCredential}
	}
	if strings.TrimSpace(s.cfg.BaseURL) == "" {
		return &ConfigError{Source: ExplorerSourceName, Err: fmt.Errorf("explorer url is required")}
	}
	return nil
}

// Start returns the first page. It makes no network call.
func (s *ExplorerSource) Start(_ context.Context) (Cursor, error) {
	if err := s.checkConfig(); err != nil {
		return Cursor{}, err
	}
	return Cursor{Page: 1}, nil
}

type explorerResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type explorerLog struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     string   `json:"blockNumber"`
	TimeStamp       string   `json:"timeStamp"`
	LogIndex        string   `json:"logIndex"`
	TransactionHash string   `json:"transactionHash"`
}

// FetchLogs reads one page. A provider status other than "1" means no data and
// yields an empty page. Transport failures, non-2xx responses and malformed
// bodies are returned as errors.
func (s *ExplorerSource) FetchLogs(ctx context.Context, topic0 common.Hash, cursor Cursor) (Page, error) {
	if err := s.checkConfig(); err != nil {
		return Page{}, err
	}
	page := cursor.Page
	if page < 1 {
		page = 1
	}

	endpoint, err := s.buildURL(topic0, page)
	if err != nil {
		return Page{}, &ConfigError{Source: ExplorerSourceName, Err: err}
	}

	if err := s.pacer.Wait(ctx); err != nil {
		return Page{}, err
	}
	body, err := s.get(ctx, endpoint)
	if err != nil {
		return Page{}, err
	}

	var resp explorerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, fmt.Errorf("decode explorer response: %w", err)
	}
	if resp.Status != "1" {
		s.logger.Info("explorer returned no data", zap.String("status", resp.Status), zap.String("message", resp.Message), zap.Int("page", page))
		return Page{}, nil
	}

	var entries []explorerLog
	if err := json.Unmarshal(resp.Result, &entries); err != nil {
		s.logger.Warn("explorer result is not a list", zap.Error(err), zap.Int("page", page))
		return Page{}, nil
	}

	records := make([]model.RawLog, 0, len(entries))
	for _, entry := range entries {
		record, err := entry.toRawLog()
		if err != nil {
			s.logger.Warn("skip malformed explorer log", zap.Error(err), zap.String("tx_hash", entry.TransactionHash))
			continue
		}
		records = append(records, record)
	}

	out := Page{Records: records}
	if len(entries) >= s.cfg.PageSize {
		out.Next = &Cursor{Page: page + 1}
	}
	return out, nil
}

func (s *ExplorerSource) buildURL(topic0 common.Hash, page int) (string, error) {
	base, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid explorer url: %w", err)
	}
	query := base.Query()
	query.Set("module", "logs")
	query.Set("action", "getLogs")
	query.Set("address", strings.ToLower(s.cfg.Pair.Hex()))
	query.Set("topic0", topic0.Hex())
	query.Set("page", strconv.Itoa(page))
	query.Set("offset", strconv.Itoa(s.cfg.PageSize))
	query.Set("apikey", s.cfg.APIKey)
	base.RawQuery = query.Encode()
	return base.String(), nil
}

func (s *ExplorerSource) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read explorer response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("explorer status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (e explorerLog) toRawLog() (model.RawLog, error) {
	block, err := parseQuantity(e.BlockNumber)
	if err != nil {
		return model.RawLog{}, fmt.Errorf("block number: %w", err)
	}
	ts, err := parseQuantity(e.TimeStamp)
	if err != nil {
		return model.RawLog{}, fmt.Errorf("timestamp: %w", err)
	}
	logIndex, err := parseQuantity(e.LogIndex)
	if err != nil {
		return model.RawLog{}, fmt.Errorf("log index: %w", err)
	}
	return model.RawLog{
		TxHash:      e.TransactionHash,
		BlockNumber: block,
		LogIndex:    logIndex,
		Address:     e.Address,
		Topics:      e.Topics,
		Data:        e.Data,
		Timestamp:   ts,
		Source:      ExplorerSourceName,
	}, nil
}

// parseQuantity accepts 0x-prefixed hex or base-10 numbers. Empty and "0x"
// parse as zero.
func parseQuantity(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" || input == "0x" {
		return 0, nil
	}
	if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
		return strconv.ParseUint(input[2:], 16, 64)
	}
	return strconv.ParseUint(input, 10, 64)
}
