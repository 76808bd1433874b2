package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apotek/apotek/internal/pharmacy"
)

func getPath(handler http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestCatalogEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, &stubPlanner{text: "x"})
	handler := srv.Handler()

	t.Run("list medications", func(t *testing.T) {
		rec := getPath(handler, "/api/medications")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Medications []pharmacy.MedicationView `json:"medications"`
			Total       int                       `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 8, resp.Total)
	})

	t.Run("get medication english", func(t *testing.T) {
		rec := getPath(handler, "/api/medications/acamol")
		require.Equal(t, http.StatusOK, rec.Code)

		var view pharmacy.MedicationView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, "Acamol", view.Name)
		assert.Equal(t, "Paracetamol", view.ActiveIngredient)
	})

	t.Run("get medication hebrew", func(t *testing.T) {
		rec := getPath(handler, "/api/medications/Acamol?lang=he")
		require.Equal(t, http.StatusOK, rec.Code)

		var view pharmacy.MedicationView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, "אקמול", view.Name)
	})

	t.Run("medication not found", func(t *testing.T) {
		rec := getPath(handler, "/api/medications/Placebo")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("stock", func(t *testing.T) {
		rec := getPath(handler, "/api/stock/Aspirin")
		require.Equal(t, http.StatusOK, rec.Code)

		var info pharmacy.StockInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.False(t, info.InStock)
		assert.Equal(t, pharmacy.StockOut, info.Status)
	})

	t.Run("prescriptions", func(t *testing.T) {
		rec := getPath(handler, "/api/users/user001/prescriptions")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			UserID        string                    `json:"user_id"`
			Prescriptions []pharmacy.MedicationView `json:"prescriptions"`
			Total         int                       `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "user001", resp.UserID)
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("prescriptions unknown user", func(t *testing.T) {
		rec := getPath(handler, "/api/users/user999/prescriptions")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
