package handler

import (
	"context"
	"net/http"
	"time"

	"dealerstock/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// StorageState is satisfied by *infra.ObjectStorage.
type StorageState interface {
	State() infra.CBState
}

// Health returns a JSON health check response.
// Checks DB and Redis connectivity and reports the storage circuit state;
// never exposes credentials or internals. An open circuit degrades uploads
// only, so it does not turn the check red.
func Health(db *gorm.DB, rdb *redis.Client, storage StorageState) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb == nil {
			redisStatus = "disabled"
		} else if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		storageStatus := "unknown"
		if storage != nil {
			storageStatus = storage.State().String()
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":      status == http.StatusOK,
			"db":      dbStatus,
			"redis":   redisStatus,
			"storage": storageStatus,
		})
	}
}
