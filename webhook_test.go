package main

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func signSHA256(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func signSHA1(secret, body string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

func seedProjects(t *testing.T) {
	t.Helper()
	_, err := writeContent(contentProjects, map[string]any{
		"projects": []any{
			map[string]any{"id": "folio", "name": "Folio"},
		},
	})
	require.NoError(t, err)
}

func pushBody(ref, before, after string) string {
	return `{"ref":"` + ref + `","before":"` + before + `","after":"` + after + `"}`
}

func Test_Webhook_RejectsBadSignature(t *testing.T) {
	setupTest(t)
	r := newTestRouter()
	body := pushBody("refs/heads/main", "aaa", "bbb")

	// No signature at all.
	w := doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=folio", body,
		map[string]string{"x-github-event": "push"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong secret.
	w = doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=folio", body,
		map[string]string{
			"x-github-event":      "push",
			"x-hub-signature-256": signSHA256("wrong-secret", body),
		})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Malformed header value.
	w = doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=folio", body,
		map[string]string{
			"x-github-event":      "push",
			"x-hub-signature-256": "sha256=zzzz",
		})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func Test_Webhook_PushToPrimaryBranch(t *testing.T) {
	setupTest(t)
	seedProjects(t)
	r := newTestRouter()

	body := pushBody("refs/heads/main", "aaa", "bbb")
	w := doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=folio", body,
		map[string]string{
			"x-github-event":      "push",
			"x-hub-signature-256": signSHA256(cfg.WebhookSecret, body),
		})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	require.Equal(t, true, resp["success"])
	require.Equal(t, "folio", resp["projectId"])
	require.NotEmpty(t, resp["lastPublished"])
	require.Equal(t, float64(2), resp["globalVersion"])

	latest, err := latestSnapshot(contentProjects)
	require.NoError(t, err)
	entry := latest.Data["projects"].([]any)[0].(map[string]any)
	require.NotEmpty(t, entry["lastPublished"])
}

func Test_Webhook_SHA1Fallback(t *testing.T) {
	setupTest(t)
	seedProjects(t)
	r := newTestRouter()

	body := pushBody("refs/heads/main", "ccc", "ddd")
	w := doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=folio", body,
		map[string]string{
			"x-github-event":  "push",
			"x-hub-signature": signSHA1(cfg.WebhookSecret, body),
		})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decodeBody(t, w)["success"])
}

func Test_Webhook_DuplicateDeliverySkipped(t *testing.T) {
	setupTest(t)
	seedProjects(t)
	r := newTestRouter()

	body := pushBody("refs/heads/main", "aaa", "bbb")
	headers := map[string]string{
		"x-github-event":      "push",
		"x-hub-signature-256": signSHA256(cfg.WebhookSecret, body),
	}

	w := doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=folio", body, headers)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decodeBody(t, w)["success"])

	// Same commit range again: acknowledged, but no second version bump.
	w = doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=folio", body, headers)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	require.Equal(t, true, resp["skipped"])
	require.Equal(t, "duplicate delivery", resp["reason"])

	latest, err := latestSnapshot(contentProjects)
	require.NoError(t, err)
	require.Equal(t, 2, latest.Version)
}

func Test_Webhook_NonPrimaryBranchSkipped(t *testing.T) {
	setupTest(t)
	seedProjects(t)
	r := newTestRouter()

	body := pushBody("refs/heads/feature-x", "aaa", "bbb")
	w := doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=folio", body,
		map[string]string{
			"x-github-event":      "push",
			"x-hub-signature-256": signSHA256(cfg.WebhookSecret, body),
		})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	require.Equal(t, true, resp["skipped"])
	require.NotEmpty(t, resp["reason"])

	latest, err := latestSnapshot(contentProjects)
	require.NoError(t, err)
	require.Equal(t, 1, latest.Version)
}

func Test_Webhook_MergedPullRequest(t *testing.T) {
	setupTest(t)
	seedProjects(t)
	r := newTestRouter()

	body := `{"action":"closed","pull_request":{"merged":true,"merge_commit_sha":"eee","base":{"ref":"main"}}}`
	w := doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=folio", body,
		map[string]string{
			"x-github-event":      "pull_request",
			"x-hub-signature-256": signSHA256(cfg.WebhookSecret, body),
		})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decodeBody(t, w)["success"])

	// Closed without merging does not qualify.
	body = `{"action":"closed","pull_request":{"merged":false,"base":{"ref":"main"}}}`
	w = doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=folio", body,
		map[string]string{
			"x-github-event":      "pull_request",
			"x-hub-signature-256": signSHA256(cfg.WebhookSecret, body),
		})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decodeBody(t, w)["skipped"])
}

func Test_Webhook_IgnoredEventType(t *testing.T) {
	setupTest(t)
	r := newTestRouter()

	body := `{"zen":"keep it simple"}`
	w := doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=folio", body,
		map[string]string{
			"x-github-event":      "ping",
			"x-hub-signature-256": signSHA256(cfg.WebhookSecret, body),
		})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decodeBody(t, w)["skipped"])
}

func Test_Webhook_UnknownProject(t *testing.T) {
	setupTest(t)
	seedProjects(t)
	r := newTestRouter()

	body := pushBody("refs/heads/main", "aaa", "bbb")
	w := doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=ghost", body,
		map[string]string{
			"x-github-event":      "push",
			"x-hub-signature-256": signSHA256(cfg.WebhookSecret, body),
		})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func Test_Webhook_MissingProjectID(t *testing.T) {
	setupTest(t)
	r := newTestRouter()

	body := pushBody("refs/heads/main", "aaa", "bbb")
	w := doRequest(r, http.MethodPost, "/webhooks/source-control", body,
		map[string]string{
			"x-github-event":      "push",
			"x-hub-signature-256": signSHA256(cfg.WebhookSecret, body),
		})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_Webhook_CacheInvalidatedAfterUpdate(t *testing.T) {
	setupTest(t)
	seedProjects(t)
	r := newTestRouter()

	// Warm the cache at version 1.
	w := doRequest(r, http.MethodGet, "/content/projects", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := pushBody("refs/heads/main", "aaa", "bbb")
	w = doRequest(r, http.MethodPost, "/webhooks/source-control?projectId=folio", body,
		map[string]string{
			"x-github-event":      "push",
			"x-hub-signature-256": signSHA256(cfg.WebhookSecret, body),
		})
	require.Equal(t, http.StatusOK, w.Code)

	// The next read must see the bumped version, not the cached one.
	w = doRequest(r, http.MethodGet, "/content/projects", "", nil)
	resp := decodeBody(t, w)
	require.Equal(t, float64(2), resp["version"])
}
