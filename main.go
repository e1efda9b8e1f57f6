package main

import (
	"log"
	"net/http"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {
	if err := loadConfig(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	if err := openDatabase(cfg.DBPath); err != nil {
		log.Fatal("Failed to open database:", err)
	}

	cache = newMemoryCache()
	initAdminToken()

	if cfg.SeedContent {
		seedContent()
	}

	// Clean up old visitor data for privacy compliance (run in background)
	go cleanupOldVisitorData()

	r := newRouter()
	r.Run(":" + cfg.Port)
}

func newRouter() *gin.Engine {
	r := gin.Default()

	r.Use(requestIDMiddleware())
	r.Use(visitorTrackingMiddleware())

	r.Static("/images", "./images")
	r.Static("/static", "./static")

	setupContentRoutes(r)
	setupWebhookRoutes(r)
	setupContactRoutes(r)
	setupAdminRoutes(r)

	// The site itself is a single-page bundle; unmatched GET paths fall
	// back to its index so client-side routes deep-link correctly.
	apiPrefixes := []string{"/content", "/internal", "/webhooks", "/admin"}
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			isAPI := false
			for _, p := range apiPrefixes {
				if strings.HasPrefix(c.Request.URL.Path, p) {
					isAPI = true
					break
				}
			}
			if !isAPI {
				c.File("./static/index.html")
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}

// requestIDMiddleware tags each request with an id for log correlation.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-Id", id)
		c.Set("request_id", id)
		c.Next()
	}
}
