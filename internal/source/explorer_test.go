package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func explorerEntry(hash string) string {
	return fmt.Sprintf(`{"address":%q,"topics":[%q],"data":"0x%s","blockNumber":"0x26fc","timeStamp":"0x6553f100","logIndex":"0x","transactionHash":%q}`,
		testPair, testTopic, strings.Repeat("0", 128), hash)
}

func newExplorer(t *testing.T, handler http.HandlerFunc, cfg ExplorerConfig) (*ExplorerSource, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	if cfg.BaseURL == "" {
		cfg.BaseURL = srv.URL + "/api"
	}
	cfg.Pair = common.HexToAddress(testPair)
	return NewExplorerSource(cfg, srv.Client(), nil, nil), &calls
}

func TestExplorerSource_MissingKeyMakesNoCalls(t *testing.T) {
	src, calls := newExplorer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s", r.URL)
	}, ExplorerConfig{})
	ctx := context.Background()

	_, err := src.Start(ctx)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.True(t, IsConfigError(err))

	_, err = src.FetchLogs(ctx, common.HexToHash(testTopic), Cursor{Page: 1})
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestExplorerSource_FetchPage(t *testing.T) {
	var query map[string]string
	src, _ := newExplorer(t, func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for key := range r.URL.Query() {
			query[key] = r.URL.Query().Get(key)
		}
		fmt.Fprintf(w, `{"status":"1","message":"OK","result":[%s,%s]}`, explorerEntry(testHash), explorerEntry("0xabc"))
	}, ExplorerConfig{APIKey: "secret", PageSize: 2})
	ctx := context.Background()

	cursor, err := src.Start(ctx)
	require.NoError(t, err)

	page, err := src.FetchLogs(ctx, common.HexToHash(testTopic), cursor)
	require.NoError(t, err)
	require.Len(t, page.Records, 2)

	record := page.Records[0]
	assert.Equal(t, testHash, record.TxHash)
	assert.Equal(t, uint64(9980), record.BlockNumber)
	assert.Equal(t, uint64(0x6553f100), record.Timestamp)
	assert.Equal(t, uint64(0), record.LogIndex)
	assert.False(t, record.TimestampEstimated)

	assert.Equal(t, "logs", query["module"])
	assert.Equal(t, "getLogs", query["action"])
	assert.Equal(t, testPair, query["address"])
	assert.Equal(t, testTopic, query["topic0"])
	assert.Equal(t, "1", query["page"])
	assert.Equal(t, "2", query["offset"])
	assert.Equal(t, "secret", query["apikey"])

	require.NotNil(t, page.Next, "a full page offers the next one")
	assert.Equal(t, 2, page.Next.Page)
}

func TestExplorerSource_NoDataStatuses(t *testing.T) {
	bodies := []string{
		`{"status":"0","message":"No records found","result":[]}`,
		`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`,
		`{"status":"1","message":"OK","result":"unexpected"}`,
	}
	for _, body := range bodies {
		body := body
		src, _ := newExplorer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		}, ExplorerConfig{APIKey: "secret"})

		page, err := src.FetchLogs(context.Background(), common.HexToHash(testTopic), Cursor{Page: 1})
		require.NoError(t, err, body)
		assert.Empty(t, page.Records, body)
		assert.Nil(t, page.Next, body)
	}
}

func TestExplorerSource_TransientErrors(t *testing.T) {
	src, _ := newExplorer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}, ExplorerConfig{APIKey: "secret"})
	_, err := src.FetchLogs(context.Background(), common.HexToHash(testTopic), Cursor{Page: 1})
	require.Error(t, err)
	assert.False(t, IsConfigError(err))

	src, _ = newExplorer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{not json`)
	}, ExplorerConfig{APIKey: "secret"})
	_, err = src.FetchLogs(context.Background(), common.HexToHash(testTopic), Cursor{Page: 1})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingCredential))
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]uint64{"": 0, "0x": 0, "0x0a": 10, "0X1f": 31, "42": 42}
	for input, want := range cases {
		got, err := parseQuantity(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %d want %d", input, got, want)
		}
	}
	if _, err := parseQuantity("0xzz"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
}
