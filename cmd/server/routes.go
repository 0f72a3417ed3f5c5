// Package main provides the LINE bot server entry point.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miulabs/miu-linebot-go/internal/buildinfo"
	"github.com/miulabs/miu-linebot-go/internal/config"
	"github.com/miulabs/miu-linebot-go/internal/storage"
	"github.com/miulabs/miu-linebot-go/internal/webhook"
)

// setupRoutes configures all HTTP routes.
func setupRoutes(router *gin.Engine, cfg *config.Config, webhookHandler *webhook.Handler, db *storage.DB, registry *prometheus.Registry) {
	rootHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "miu-linebot",
			"version": buildinfo.Version,
		})
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Liveness probe: process is up. Never checks dependencies.
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe: dependencies reachable.
	readyHandler := func(c *gin.Context) {
		if err := db.Conn().PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// LINE webhook callback endpoint.
	router.POST("/webhook", webhookHandler.Handle)

	// Prometheus metrics, behind basic auth when a password is configured.
	metricsHandler := gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if cfg.MetricsPassword != "" {
		authed := router.Group("/", gin.BasicAuth(gin.Accounts{
			cfg.MetricsUsername: cfg.MetricsPassword,
		}))
		authed.GET("/metrics", metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}
