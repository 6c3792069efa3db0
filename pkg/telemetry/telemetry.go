package telemetry

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raykavin/bosfvg/pkg/backtest"
	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/logger"
)

// Collector exports backtest events as prometheus metrics
type Collector struct {
	BarsTotal        prometheus.Counter
	BarsSkippedTotal prometheus.Counter
	SignalsTotal     prometheus.Counter
	RejectionsTotal  *prometheus.CounterVec
	TradesTotal      *prometheus.CounterVec
	Equity           prometheus.Gauge
}

var _ backtest.Observer = (*Collector)(nil)

// NewCollector creates the metrics and registers them on reg
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		BarsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "bosfvg_bars_total", Help: "Bars simulated"},
		),
		BarsSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "bosfvg_bars_skipped_total", Help: "Malformed bars skipped"},
		),
		SignalsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "bosfvg_signals_total", Help: "Signals emitted"},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "bosfvg_rejections_total", Help: "Entry candidates rejected by a filter"},
			[]string{"reason"},
		),
		TradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "bosfvg_trades_total", Help: "Closed trades"},
			[]string{"exit_reason"},
		),
		Equity: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "bosfvg_equity", Help: "Last marked account equity"},
		),
	}

	for _, collector := range []prometheus.Collector{
		c.BarsTotal, c.BarsSkippedTotal, c.SignalsTotal, c.RejectionsTotal, c.TradesTotal, c.Equity,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Collector) OnBar(_ core.Candle, sample core.EquitySample) {
	c.BarsTotal.Inc()
	c.Equity.Set(sample.Equity)
}

func (c *Collector) OnSkip(core.Candle, error) { c.BarsSkippedTotal.Inc() }

func (c *Collector) OnSignal(core.Signal) { c.SignalsTotal.Inc() }

func (c *Collector) OnTrade(trade core.Trade) {
	c.TradesTotal.WithLabelValues(string(trade.ExitReason)).Inc()
}

// OnFinish publishes the rejection counts, which are only known per run
func (c *Collector) OnFinish(result *backtest.Result) {
	for reason, count := range result.Rejections {
		c.RejectionsTotal.WithLabelValues(string(reason)).Add(float64(count))
	}
	if n := len(result.Equity); n > 0 {
		c.Equity.Set(result.Equity[n-1].Equity)
	}
}

// Serve exposes /metrics of gatherer on addr in the background
func Serve(addr string, gatherer prometheus.Gatherer, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	return srv
}
