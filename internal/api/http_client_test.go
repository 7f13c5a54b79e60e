package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ngmaloney/stratus-terminal/internal/models"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewHTTPClient(server.URL, WithSearchRate(1000, 1000))
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient("http://localhost:5000/api/")

	if client.BaseURL() != "http://localhost:5000/api" {
		t.Errorf("BaseURL() = %s, want trailing slash trimmed", client.BaseURL())
	}
	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", client.httpClient.Timeout)
	}
	if client.userAgent == "" {
		t.Error("userAgent should not be empty")
	}

	client = NewHTTPClient("http://x", WithTimeout(5*time.Second))
	if client.httpClient.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", client.httpClient.Timeout)
	}
}

func TestHTTPClient_Headers(t *testing.T) {
	var ids []string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("User-Agent header not set")
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Error("Accept header should be application/json")
		}
		ids = append(ids, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`[]`))
	})

	client.Sources(context.Background())
	client.Sources(context.Background())

	if len(ids) != 2 || ids[0] == "" || ids[0] == ids[1] {
		t.Errorf("X-Request-ID values = %v, want two distinct ids", ids)
	}
}

func TestHTTPClient_Sources(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sources" {
			t.Errorf("path = %s, want /sources", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 1, "short_name": "hrrr", "name": "HRRR",
			"fields": [{"id": 10, "source_id": 1, "metric_id": 1}]}]`))
	})

	sources, err := client.Sources(context.Background())
	if err != nil {
		t.Fatalf("Sources() error = %v", err)
	}
	if len(sources) != 1 || sources[0].ShortName != "hrrr" {
		t.Fatalf("Sources() = %+v", sources)
	}
	if len(sources[0].Fields) != 1 || sources[0].Fields[0].MetricID != 1 {
		t.Errorf("Fields = %+v, want one field for metric 1", sources[0].Fields)
	}
}

func TestHTTPClient_Wx(t *testing.T) {
	start := time.Unix(1700000000, 0)
	end := start.Add(72 * time.Hour)

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/wx" {
			t.Errorf("path = %s, want /wx", r.URL.Path)
		}
		if q.Get("lat") != "42.36" || q.Get("lon") != "-71.06" {
			t.Errorf("lat/lon = %s/%s", q.Get("lat"), q.Get("lon"))
		}
		if q.Get("start") != "1700000000" || q.Get("end") != "1700259200" {
			t.Errorf("start/end = %s/%s", q.Get("start"), q.Get("end"))
		}
		w.Write([]byte(`{"ordered_times": [1700003600],
			"data": {"1700003600": [{"src_field_id": 10, "run_time": 1699990000, "value": 280.1}]}}`))
	})

	wx, err := client.Wx(context.Background(), 42.36, -71.06, start, end)
	if err != nil {
		t.Fatalf("Wx() error = %v", err)
	}
	if wx.Len() != 1 {
		t.Errorf("Len() = %d, want 1", wx.Len())
	}
}

func TestHTTPClient_Summarize(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("days") != "1" {
			t.Errorf("days = %s, want 1", r.URL.Query().Get("days"))
		}
		w.Write([]byte(`[{"temps": [{"temperature": 290}], "high": {"temperature": 295},
			"low": {"temperature": 285}, "cloud_cover": [{"cover": "clear"}],
			"summary": {"components": [{"type": "text", "text": "clear"}]}}]`))
	})

	summaries, err := client.Summarize(context.Background(), 1, 2, 1)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(summaries) != 1 || summaries[0].High.Temperature != 295.0 {
		t.Errorf("Summarize() = %+v", summaries)
	}
}

func TestHTTPClient_Locations(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/location/search":
			if r.URL.Query().Get("q") != "bos" {
				t.Errorf("q = %s, want bos", r.URL.Query().Get("q"))
			}
			w.Write([]byte(`[{"id": 7, "name": "Boston, MA", "lat": 42.36, "lon": -71.06}]`))
		case "/location/7":
			w.Write([]byte(`{"id": 7, "name": "Boston, MA", "lat": 42.36, "lon": -71.06}`))
		case "/location/by_coords":
			w.Write([]byte(`{"id": 7, "name": "Boston, MA", "lat": 42.36, "lon": -71.06}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	found, err := client.SearchLocations(ctx, "bos")
	if err != nil {
		t.Fatalf("SearchLocations() error = %v", err)
	}
	if len(found) != 1 || found[0].ID != 7 {
		t.Errorf("SearchLocations() = %+v", found)
	}

	loc, err := client.Location(ctx, 7)
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.Name != "Boston, MA" {
		t.Errorf("Location().Name = %s", loc.Name)
	}

	near, err := client.LocationByCoords(ctx, 42.4, -71.1)
	if err != nil {
		t.Fatalf("LocationByCoords() error = %v", err)
	}
	want := models.Location{Name: "Near Boston, MA", Lat: 42.4, Lon: -71.1}
	if near != want {
		t.Errorf("LocationByCoords() = %+v, want %+v", near, want)
	}
}

func TestHTTPClient_ErrorNormalization(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
	}{
		{"server message", http.StatusBadRequest, `{"message": "lat is required"}`, 400, "lat is required"},
		{"no message", http.StatusNotFound, `{}`, 404, "Error: 404 Not Found"},
		{"non json body", http.StatusInternalServerError, `oops`, 500, "Error: 500 Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Metrics(context.Background())
			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("error = %v (%T), want *TransportError", err, err)
			}
			if te.Status != tt.wantStatus || te.Message != tt.wantMessage {
				t.Errorf("TransportError = {%d %q}, want {%d %q}", te.Status, te.Message, tt.wantStatus, tt.wantMessage)
			}
		})
	}
}

func TestHTTPClient_NoResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewHTTPClient(url).Metrics(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if te.Status != 500 || te.Message != MsgNoResponse {
		t.Errorf("TransportError = {%d %q}, want {500 %q}", te.Status, te.Message, MsgNoResponse)
	}
}

func TestHTTPClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	_, err := NewHTTPClient(server.URL, WithTimeout(50*time.Millisecond)).Metrics(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if te.Message != MsgTimedOut {
		t.Errorf("Message = %q, want %q", te.Message, MsgTimedOut)
	}
}

func TestHTTPClient_Cancelled(t *testing.T) {
	started := make(chan struct{})
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.SearchLocations(ctx, "boston")
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("error = %v, want ErrCancelled", err)
	}
	if !IsCancelled(err) {
		t.Error("IsCancelled() = false for a cancelled request")
	}
	var te *TransportError
	if errors.As(err, &te) {
		t.Error("cancellation must not be a TransportError")
	}
}

func TestHTTPClient_BreakerIgnoresCancellation(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := client.Metrics(ctx); !errors.Is(err, ErrCancelled) {
			t.Fatalf("Metrics() error = %v, want ErrCancelled", err)
		}
	}

	if client.breaker.State() != gobreaker.StateClosed {
		t.Errorf("breaker state = %s, want closed", client.breaker.State())
	}
	if _, err := client.Metrics(context.Background()); err != nil {
		t.Errorf("Metrics() error = %v", err)
	}
}

func TestHTTPClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		client.Metrics(context.Background())
	}

	_, err := client.Metrics(context.Background())
	var te *TransportError
	if !errors.As(err, &te) || te.Status != http.StatusServiceUnavailable {
		t.Fatalf("error = %v, want 503 TransportError", err)
	}
	if te.Message != MsgUnavailable {
		t.Errorf("Message = %q, want %q", te.Message, MsgUnavailable)
	}
	if got := atomic.LoadInt32(&hits); got != 5 {
		t.Errorf("server hits = %d, want 5", got)
	}
}

func TestHTTPClient_ClientErrorsDoNotTrip(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 10; i++ {
		client.Location(context.Background(), 99)
	}
	if client.breaker.State() != gobreaker.StateClosed {
		t.Errorf("breaker state = %s, want closed", client.breaker.State())
	}
}

type fakeForecast struct {
	wxErr error
}

func (f fakeForecast) Wx(ctx context.Context, lat, lon float64, start, end time.Time) (models.WxSeries, error) {
	if f.wxErr != nil {
		return models.WxSeries{}, f.wxErr
	}
	return models.WxSeries{OrderedTimes: []int64{start.Unix(), end.Unix()}}, nil
}

func (f fakeForecast) Summarize(ctx context.Context, lat, lon float64, days int) ([]models.DailySummary, error) {
	return make([]models.DailySummary, days), nil
}

func TestFetchForecast(t *testing.T) {
	now := time.Unix(1700000000, 0)
	wx, summaries, err := FetchForecast(context.Background(), fakeForecast{}, models.Location{}, 72, 1, now)
	if err != nil {
		t.Fatalf("FetchForecast() error = %v", err)
	}
	if wx.OrderedTimes[1]-wx.OrderedTimes[0] != 72*3600 {
		t.Errorf("window = %v, want 72h", wx.OrderedTimes)
	}
	if len(summaries) != 1 {
		t.Errorf("len(summaries) = %d, want 1", len(summaries))
	}

	boom := &TransportError{Status: 500, Message: "boom"}
	_, _, err = FetchForecast(context.Background(), fakeForecast{wxErr: boom}, models.Location{}, 72, 1, now)
	if !errors.Is(err, boom) {
		t.Errorf("FetchForecast() error = %v, want %v", err, boom)
	}
}
