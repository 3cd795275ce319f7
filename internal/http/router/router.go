package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/mergebot/internal/http/handler/webhook"
)

type Handlers struct {
	GitLab *webhook.GitLabWebhookHandler
}

func SetupRoutes(router *gin.Engine, handlers Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	hooks := router.Group("/webhooks")
	hooks.POST("/gitlab", handlers.GitLab.HandleEvent)
}
