package main

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type pushEvent struct {
	Ref    string `json:"ref"`
	Before string `json:"before"`
	After  string `json:"after"`
}

type pullRequestEvent struct {
	Action      string `json:"action"`
	PullRequest struct {
		Merged         bool   `json:"merged"`
		MergeCommitSHA string `json:"merge_commit_sha"`
		Base           struct {
			Ref string `json:"ref"`
		} `json:"base"`
	} `json:"pull_request"`
}

func setupWebhookRoutes(r *gin.Engine) {
	r.POST("/webhooks/source-control", sourceControlWebhookHandler)
}

// verifyWebhookSignature checks the provider's HMAC signature over the raw
// body. SHA-256 is preferred; SHA-1 is accepted as a fallback for providers
// that still send only the legacy header. Comparison is constant-time.
func verifyWebhookSignature(secret string, body []byte, sig256, sig1 string) bool {
	if secret == "" {
		return false
	}

	if sig256 != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(sig256), []byte(expected))
	}

	if sig1 != "" {
		mac := hmac.New(sha1.New, []byte(secret))
		mac.Write(body)
		expected := "sha1=" + hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(sig1), []byte(expected))
	}

	return false
}

// sourceControlWebhookHandler reacts to pushes on the primary branch (or
// merged pull requests into it) by stamping the matching project's
// lastPublished field and bumping the global content version. Everything
// else is acknowledged and skipped.
func sourceControlWebhookHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	sig256 := c.GetHeader("x-hub-signature-256")
	sig1 := c.GetHeader("x-hub-signature")
	if !verifyWebhookSignature(cfg.WebhookSecret, body, sig256, sig1) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	projectID := c.Query("projectId")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "projectId query parameter required"})
		return
	}

	deliveryKey, reason := classifyEvent(c.GetHeader("x-github-event"), body)
	if deliveryKey == "" {
		c.JSON(http.StatusOK, gin.H{"skipped": true, "reason": reason})
		return
	}

	seen, err := seenWebhookDelivery(deliveryKey)
	if err != nil {
		log.Printf("Webhook dedup check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if seen {
		c.JSON(http.StatusOK, gin.H{"skipped": true, "reason": "duplicate delivery"})
		return
	}

	lastPublished := time.Now().UTC().Format(time.RFC3339)
	version, err := bumpProjectPublished(projectID, lastPublished)
	if errors.Is(err, errNoContent) || errors.Is(err, errProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown project"})
		return
	}
	if errors.Is(err, errVersionConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent write, retry"})
		return
	}
	if err != nil {
		log.Printf("Error updating project %s from webhook: %v", projectID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update project"})
		return
	}

	if err := markWebhookDelivery(deliveryKey); err != nil {
		log.Printf("Webhook delivery record failed: %v", err)
	}
	invalidateContentCache(contentProjects)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"projectId":     projectID,
		"lastPublished": lastPublished,
		"globalVersion": version,
	})
}

// classifyEvent decides whether an event qualifies as an update trigger.
// It returns a dedup key for eligible events, or an empty key plus the
// skip reason.
func classifyEvent(eventType string, body []byte) (deliveryKey, reason string) {
	switch eventType {
	case "push":
		var event pushEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return "", "malformed push payload"
		}
		if event.Ref != "refs/heads/"+cfg.PrimaryBranch {
			return "", "push to non-primary branch " + event.Ref
		}
		return "push:" + event.Before + ":" + event.After, ""

	case "pull_request":
		var event pullRequestEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return "", "malformed pull_request payload"
		}
		if event.Action != "closed" || !event.PullRequest.Merged {
			return "", "pull request not merged"
		}
		if event.PullRequest.Base.Ref != cfg.PrimaryBranch {
			return "", "merge into non-primary branch " + event.PullRequest.Base.Ref
		}
		return "pr:" + event.PullRequest.MergeCommitSHA, ""

	default:
		return "", "ignored event type " + eventType
	}
}
