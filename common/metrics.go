package common

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApiMetric tracks API performance metrics
type ApiMetric struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Endpoint   string    `gorm:"not null" json:"endpoint"`
	Method     string    `gorm:"not null" json:"method"`
	StatusCode int       `gorm:"not null" json:"status_code"`
	DurationMs int       `gorm:"not null" json:"duration_ms"`
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `gorm:"not null" json:"timestamp"`
}

func (ApiMetric) TableName() string { return "api_metrics" }

// AutoMigrateMetrics creates the metrics table
func AutoMigrateMetrics(db *gorm.DB) {
	db.AutoMigrate(&ApiMetric{})
}

// MetricsMiddleware tags each request with an ID and records latency metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		startTime := time.Now()

		c.Next()

		metric := ApiMetric{
			Endpoint:   c.FullPath(),
			Method:     c.Request.Method,
			StatusCode: c.Writer.Status(),
			DurationMs: int(time.Since(startTime).Milliseconds()),
			RequestID:  requestID,
			Timestamp:  startTime,
		}

		// Save metric asynchronously
		go func() {
			db := GetDB()
			db.Create(&metric)
		}()
	}
}
