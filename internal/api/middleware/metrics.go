package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erciktiburak/school-attendance-api/pkg/metrics"
)

// Metrics 记录 HTTP 请求计数与耗时
// route 取路由模板，未匹配的路径归为 unmatched，避免标签基数失控
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
