package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dashsets/docsetctl/internal/observability"
	"github.com/dashsets/docsetctl/internal/updater"
)

func (s *Server) registerRoutes(r *gin.Engine) {
	observability.RegisterMetrics()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.startedAt).String(),
			"service": "docsetctl",
			"version": serviceVersion,
		})
	})

	r.GET("/products", func(c *gin.Context) {
		last := s.history.lastByProduct()
		list := make([]gin.H, 0)
		for _, meta := range s.registry.ListMetadata() {
			entry := gin.H{
				"id":      meta.ID,
				"name":    meta.Name,
				"archive": meta.Archive,
			}
			if result, ok := last[meta.ID]; ok {
				entry["last_result"] = result
			}
			list = append(list, entry)
		}
		c.JSON(http.StatusOK, gin.H{"products": list})
	})

	r.GET("/runs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"runs": s.history.list()})
	})

	r.POST("/products/:id/update", func(c *gin.Context) {
		id := c.Param("id")
		if _, ok := s.registry.Resolve(id); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown product " + id})
			return
		}

		results := s.runCycle(c.Request.Context(), "manual", id)
		status := http.StatusOK
		if updater.Failed(results) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"results": toResultRecords(results)})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
