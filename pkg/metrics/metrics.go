package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP 指标
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_http_requests_total",
		Help: "HTTP 请求总数",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendance_http_request_duration_seconds",
		Help:    "HTTP 请求耗时",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// 业务指标
var (
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_checkins_total",
		Help: "签到次数（按状态）",
	}, []string{"status"})

	CheckOuts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_checkouts_total",
		Help: "签退次数",
	})

	SessionMinutes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "attendance_session_minutes",
		Help:    "签到到签退的时长（分钟）",
		Buckets: []float64{15, 30, 60, 120, 240, 480, 720},
	})

	HubViewers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attendance_hub_viewers",
		Help: "当前在线的实时推送连接数",
	})

	HubDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_hub_dropped_total",
		Help: "因发送缓冲已满而被断开的推送连接数",
	})

	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_emails_total",
		Help: "邮件发送结果",
	}, []string{"kind", "result"})
)
