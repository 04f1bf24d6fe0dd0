// Package testserver runs the full HTTP stack against an in-memory
// database for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/Avflux/Av-sub001/internal/calendar"
	"github.com/Avflux/Av-sub001/internal/daily"
	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/domain/journal"
	"github.com/Avflux/Av-sub001/internal/mcp"
	"github.com/Avflux/Av-sub001/internal/metrics"
	"github.com/Avflux/Av-sub001/internal/observer"
	"github.com/Avflux/Av-sub001/internal/sqlite"
	"github.com/Avflux/Av-sub001/internal/timer"
	"github.com/Avflux/Av-sub001/internal/tracker"
	"github.com/Avflux/Av-sub001/internal/transport"
)

type TestServer struct {
	Server  *httptest.Server
	DB      *sqlite.DB
	Token   string
	UserID  string
	Tracker *tracker.Tracker
	Metrics *metrics.Collector
}

// New starts a server with HTTP auth enabled and token registered for
// userID. Timer ticks are effectively disabled; totals advance with the
// wall clock on pause and stop.
func New(t *testing.T, token, userID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	activityRepo := sqlite.NewActivityRepository(db, nil)
	apiKeys := sqlite.NewAPIKeyRepository(db)
	activitySvc := activity.NewService(activityRepo, nil)
	journalSvc := journal.NewService(sqlite.NewJournalRepository(db), nil)

	collector := metrics.NewCollector()
	bus := observer.NewBus(nil)
	bus.Subscribe(collector)
	bus.Subscribe(journal.NewRecorder(journalSvc))

	engine := timer.NewEngine(activityRepo, bus, nil, timer.Config{TickInterval: time.Hour})
	acc := daily.New(calendar.Default(), sqlite.NewDailyRepository(db, nil), bus, nil, daily.Config{UserID: userID})
	tr := tracker.New(tracker.Config{
		Activities: activitySvc,
		Engine:     engine,
		Daily:      acc,
	})

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Activities: activitySvc,
			Tracker:    tr,
			Journal:    journalSvc,
		},
		Resolver:      apiKeys,
		AuthEnabled:   true,
		TransportMode: "http",
		DefaultUser:   userID,
	})
	router := transport.NewRouter(transport.RouterConfig{
		MCP: sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			nil,
		),
		Auth:       transport.AuthMiddleware(apiKeys),
		Metrics:    collector.Handler(),
		Instrument: collector.Middleware,
	})
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:  server,
		DB:      db,
		Token:   token,
		UserID:  userID,
		Tracker: tr,
		Metrics: collector,
	}
	require.NoError(t, ts.AddAPIKey(token, userID))

	t.Cleanup(func() {
		server.Close()
		_, _ = engine.Stop(context.Background())
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers another bearer token.
func (ts *TestServer) AddAPIKey(token, userID string) error {
	return sqlite.NewAPIKeyRepository(ts.DB).Create(context.Background(), token, userID, "test")
}

// Connect opens an MCP client session authenticated with token.
func (ts *TestServer) Connect(t *testing.T, token string) *sdkmcp.ClientSession {
	t.Helper()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearerTransport{token: token}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

type bearerTransport struct {
	token string
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return http.DefaultTransport.RoundTrip(req)
}
