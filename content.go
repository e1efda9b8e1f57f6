package main

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// internalAuthMiddleware guards the /internal content endpoints with a
// shared secret header. An unconfigured secret never matches.
func internalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader("x-internal-secret")
		if cfg.InternalSecret == "" ||
			subtle.ConstantTimeCompare([]byte(secret), []byte(cfg.InternalSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func setupContentRoutes(r *gin.Engine) {
	r.GET("/content/:type", getContentHandler)

	internal := r.Group("/internal")
	internal.Use(internalAuthMiddleware())
	internal.PUT("/content/:type", putContentHandler)
	internal.DELETE("/content/:type", deleteContentHandler)
}

// getContentHandler serves the latest content payload. A client that passes
// the version it already holds gets {version, data: null} back when nothing
// changed, so unchanged payloads never cross the wire twice.
func getContentHandler(c *gin.Context) {
	contentType := c.Param("type")

	clientVersion := 0
	if raw := c.Query("version"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "version must be a non-negative integer"})
			return
		}
		clientVersion = v
	}

	if payload, ok := cachedContent(contentType); ok {
		cacheHits.Add(1)
		respondContent(c, payload, clientVersion)
		return
	}
	cacheMisses.Add(1)

	// Cache miss (or cache failure): fall through to the version store.
	latest, err := latestSnapshot(contentType)
	if errors.Is(err, errNoContent) {
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
		return
	}
	if err != nil {
		log.Printf("Error reading %s content: %v", contentType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load content"})
		return
	}

	data, err := json.Marshal(latest.Data)
	if err != nil {
		log.Printf("Error encoding %s content: %v", contentType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load content"})
		return
	}
	payload := cachedPayload{Version: latest.Version, Data: data}

	if raw, err := json.Marshal(payload); err == nil {
		if err := cache.Set(cacheKey(contentType), raw); err != nil {
			log.Printf("Cache populate failed for %s: %v", contentType, err)
		}
	}

	respondContent(c, payload, clientVersion)
}

// cachedContent loads and decodes the cached payload for a content type.
// Any cache failure is logged and reported as a miss; the cache is never
// allowed to fail a read.
func cachedContent(contentType string) (cachedPayload, bool) {
	var payload cachedPayload

	raw, ok, err := cache.Get(cacheKey(contentType))
	if err != nil {
		log.Printf("Cache read failed for %s: %v", contentType, err)
		return payload, false
	}
	if !ok {
		return payload, false
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("Corrupt cache entry for %s: %v", contentType, err)
		if err := cache.Delete(cacheKey(contentType)); err != nil {
			log.Printf("Cache delete failed for %s: %v", contentType, err)
		}
		return payload, false
	}
	return payload, true
}

func respondContent(c *gin.Context, payload cachedPayload, clientVersion int) {
	if payload.Version == clientVersion {
		c.JSON(http.StatusOK, gin.H{"version": payload.Version, "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": payload.Version, "data": payload.Data})
}

func putContentHandler(c *gin.Context) {
	contentType := c.Param("type")

	var req struct {
		Data map[string]any `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Data == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must contain a data object"})
		return
	}

	version, err := writeContent(contentType, req.Data)
	if errors.Is(err, errVersionConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent write, retry"})
		return
	}
	if err != nil {
		log.Printf("Error writing %s content: %v", contentType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write content"})
		return
	}

	invalidateContentCache(contentType)
	c.JSON(http.StatusOK, gin.H{"success": true, "version": version})
}

func deleteContentHandler(c *gin.Context) {
	contentType := c.Param("type")

	var req struct {
		Keys []string `json:"keys"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return
	}

	version, err := removeContentKeys(contentType, req.Keys)
	if errors.Is(err, errNoContent) {
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
		return
	}
	if errors.Is(err, errVersionConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent write, retry"})
		return
	}
	if err != nil {
		log.Printf("Error deleting %s content keys: %v", contentType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete content"})
		return
	}

	invalidateContentCache(contentType)
	c.JSON(http.StatusOK, gin.H{"success": true, "version": version})
}

// invalidateContentCache drops the cached payload after a store write. The
// write already succeeded, so a failed delete only means a brief window of
// staleness; it is logged, never surfaced.
func invalidateContentCache(contentType string) {
	if err := cache.Delete(cacheKey(contentType)); err != nil {
		log.Printf("Cache invalidation failed for %s: %v", contentType, err)
	}
}
