package api

import (
	"net/http"

	"github.com/apotek/apotek/internal/i18n"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/pharmacy"
)

// pharmacyHandler serves the read-only catalog endpoints. The lang query
// parameter ("en" default, "he") selects the localization.
type pharmacyHandler struct {
	store  *pharmacy.Store
	logger log.Logger
}

func newPharmacyHandler(store *pharmacy.Store, logger log.Logger) *pharmacyHandler {
	return &pharmacyHandler{store: store, logger: logger}
}

func (h *pharmacyHandler) register(mux *http.ServeMux) {
	if h.store == nil {
		h.logger.Warn("pharmacy store is nil, catalog endpoints not registered")
		return
	}
	mux.HandleFunc("GET /api/medications", h.listMedications)
	mux.HandleFunc("GET /api/medications/{name}", h.getMedication)
	mux.HandleFunc("GET /api/stock/{name}", h.getStock)
	mux.HandleFunc("GET /api/users/{id}/prescriptions", h.getPrescriptions)
}

func queryLang(r *http.Request) i18n.Language {
	return i18n.Normalize(r.URL.Query().Get("lang"))
}

func (h *pharmacyHandler) listMedications(w http.ResponseWriter, r *http.Request) {
	lang := queryLang(r)
	meds := h.store.Medications()
	views := make([]pharmacy.MedicationView, 0, len(meds))
	for _, m := range meds {
		views = append(views, m.Localize(lang))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"medications": views,
		"total":       len(views),
	})
}

func (h *pharmacyHandler) getMedication(w http.ResponseWriter, r *http.Request) {
	med, ok := h.store.MedicationByName(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "medication not found")
		return
	}
	writeJSON(w, http.StatusOK, med.Localize(queryLang(r)))
}

func (h *pharmacyHandler) getStock(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.StockStatus(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "medication not found")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *pharmacyHandler) getPrescriptions(w http.ResponseWriter, r *http.Request) {
	meds, err := h.store.UserPrescriptions(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	lang := queryLang(r)
	views := make([]pharmacy.MedicationView, 0, len(meds))
	for _, m := range meds {
		views = append(views, m.Localize(lang))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":       r.PathValue("id"),
		"prescriptions": views,
		"total":         len(views),
	})
}
