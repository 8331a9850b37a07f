package store_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"mediacrawler/internal/core/store"
	"mediacrawler/internal/core/store/memory"
)

func newDataApp(s store.Store) *fiber.App {
	app := fiber.New()
	h := store.NewHandler(s)
	app.Get("/v1/data/:platform", h.HandleData)
	app.Get("/v1/stats/:platform", h.HandleStats)
	return app
}

func seed(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	meta := store.Metadata{TaskID: "t1", Round: 1, Keywords: []string{"k"}}
	for _, id := range []string{"p1", "p2", "p3"} {
		require.True(t, s.Save(ctx, "xhs", store.Post{"note_id": id}, []store.Comment{{"text": "c"}}, meta))
	}
}

func TestHandleData(t *testing.T) {
	mem := memory.New()
	seed(t, mem)
	app := newDataApp(mem)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/data/xhs?limit=2&skip=1", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Platform string           `json:"platform"`
		Count    int              `json:"count"`
		Data     []store.Document `json:"data"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "xhs", body.Platform)
	require.Equal(t, 2, body.Count)
	require.Len(t, body.Data, 2)
}

func TestHandleDataUnsupportedPlatform(t *testing.T) {
	app := newDataApp(memory.New())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/data/myspace", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleStats(t *testing.T) {
	mem := memory.New()
	seed(t, mem)
	app := newDataApp(mem)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/stats/xhs", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats store.Stats
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Equal(t, int64(3), stats.TotalPosts)
	require.Equal(t, int64(3), stats.TotalComments)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/v1/stats/friendster", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
