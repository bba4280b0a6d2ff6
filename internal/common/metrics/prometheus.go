// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	distributionsTotal   *prometheus.CounterVec
	commissionAmount     *prometheus.CounterVec
	settlementsTotal     *prometheus.CounterVec
	roiPayoutsTotal      prometheus.Counter
	roiPayoutAmount      prometheus.Counter
	sweepsTotal          *prometheus.CounterVec
	withdrawalsTotal     *prometheus.CounterVec
	invariantViolations  prometheus.Counter
	jobDuration          *prometheus.HistogramVec
}

var defaultMetrics *Metrics

// Init 初始化指标收集器
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "invest_ledger"
	}

	m := &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		distributionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "distributions_total",
				Help:      "Commission distribution results by outcome (paid/lost)",
			},
			[]string{"outcome"},
		),
		commissionAmount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commission_amount_total",
				Help:      "Accumulated commission amount by outcome",
			},
			[]string{"outcome"},
		),
		settlementsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settlements_total",
				Help:      "Settlement attempts by result (offchain/onchain/failed)",
			},
			[]string{"result"},
		),
		roiPayoutsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "roi_payouts_total",
				Help:      "Total number of ROI installments paid",
			},
		),
		roiPayoutAmount: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "roi_payout_amount_total",
				Help:      "Accumulated ROI amount paid",
			},
		),
		sweepsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expiration_sweeps_total",
				Help:      "Rows expired by the sweeper by kind (package/bot)",
			},
			[]string{"kind"},
		),
		withdrawalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "withdrawals_total",
				Help:      "Withdrawal requests by status",
			},
			[]string{"status"},
		),
		invariantViolations: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invariant_violations_total",
				Help:      "Commission pool audit mismatches",
			},
		),
		jobDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Background job duration in seconds",
				Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300},
			},
			[]string{"job"},
		),
	}

	defaultMetrics = m
	return m
}

// Get 获取默认指标收集器
func Get() *Metrics {
	if defaultMetrics == nil {
		defaultMetrics = Init("")
	}
	return defaultMetrics
}

// RecordDistribution 记录一次分佣结果
func (m *Metrics) RecordDistribution(outcome string, amount float64) {
	m.distributionsTotal.WithLabelValues(outcome).Inc()
	m.commissionAmount.WithLabelValues(outcome).Add(amount)
}

// RecordSettlement 记录一次结算结果
func (m *Metrics) RecordSettlement(result string) {
	m.settlementsTotal.WithLabelValues(result).Inc()
}

// RecordRoiPayout 记录一期收益发放
func (m *Metrics) RecordRoiPayout(amount float64) {
	m.roiPayoutsTotal.Inc()
	m.roiPayoutAmount.Add(amount)
}

// RecordSweep 记录到期清扫
func (m *Metrics) RecordSweep(kind string, count int) {
	m.sweepsTotal.WithLabelValues(kind).Add(float64(count))
}

// RecordWithdrawal 记录提现申请状态
func (m *Metrics) RecordWithdrawal(status string) {
	m.withdrawalsTotal.WithLabelValues(status).Inc()
}

// RecordInvariantViolation 记录对账不平
func (m *Metrics) RecordInvariantViolation() {
	m.invariantViolations.Inc()
}

// ObserveJob 记录后台任务耗时
func (m *Metrics) ObserveJob(job string, d time.Duration) {
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// GinMiddleware HTTP 指标中间件
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler 返回 Prometheus 抓取端点
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
