package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	requestsName     = "eventsplatform_client_requests_total"
	terminationsName = "eventsplatform_client_session_terminations_total"
)

// Totals is what the client reports about its own traffic.
type Totals struct {
	Requests     float64
	Terminations float64
}

// ReadTotals sums the transport counters gathered from g. Families that were
// never registered read as zero.
func ReadTotals(g prometheus.Gatherer) (Totals, error) {
	families, err := g.Gather()
	if err != nil {
		return Totals{}, err
	}
	var t Totals
	for _, mf := range families {
		var sum float64
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
		switch mf.GetName() {
		case requestsName:
			t.Requests = sum
		case terminationsName:
			t.Terminations = sum
		}
	}
	return t, nil
}

// Handler serves the metrics in g in the prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// Serve exposes Handler(g) on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(g),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
