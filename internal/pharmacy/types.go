package pharmacy

import (
	"time"

	"github.com/apotek/apotek/internal/i18n"
)

// Medication is a single catalog record.
// Textual fields are bilingual: the bare field is English, the *HE variant is
// Hebrew, except Name which is the Hebrew brand name (NameEN is English).
type Medication struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	NameEN               string  `json:"name_en"`
	ActiveIngredient     string  `json:"active_ingredient"`
	ActiveIngredientHE   string  `json:"active_ingredient_he"`
	Dosage               string  `json:"dosage"`
	DosageHE             string  `json:"dosage_he"`
	Usage                string  `json:"usage"`
	UsageHE              string  `json:"usage_he"`
	Warnings             string  `json:"warnings"`
	WarningsHE           string  `json:"warnings_he"`
	RequiresPrescription bool    `json:"requires_prescription"`
	StockQuantity        int     `json:"stock_quantity"`
	Price                float64 `json:"price"`
}

// MedicationView is a medication localized to one language.
type MedicationView struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	ActiveIngredient     string  `json:"active_ingredient"`
	Dosage               string  `json:"dosage"`
	Usage                string  `json:"usage"`
	Warnings             string  `json:"warnings"`
	RequiresPrescription bool    `json:"requires_prescription"`
	StockQuantity        int     `json:"stock_quantity"`
	Price                float64 `json:"price"`
}

// Localize projects the record into one language.
func (m *Medication) Localize(lang i18n.Language) MedicationView {
	v := MedicationView{
		ID:                   m.ID,
		Name:                 m.NameEN,
		ActiveIngredient:     m.ActiveIngredient,
		Dosage:               m.Dosage,
		Usage:                m.Usage,
		Warnings:             m.Warnings,
		RequiresPrescription: m.RequiresPrescription,
		StockQuantity:        m.StockQuantity,
		Price:                m.Price,
	}
	if lang == i18n.LangHE {
		v.Name = m.Name
		v.ActiveIngredient = m.ActiveIngredientHE
		v.Dosage = m.DosageHE
		v.Usage = m.UsageHE
		v.Warnings = m.WarningsHE
	}
	return v
}

// User is a registered pharmacy customer.
type User struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	NameEN        string   `json:"name_en"`
	Prescriptions []string `json:"prescriptions"` // medication IDs
	Allergies     []string `json:"allergies"`     // ingredient or brand names
}

// Stock status values returned by StockStatus.
const (
	StockAvailable  = "available"
	StockLow        = "low_stock"
	StockOut        = "out_of_stock"
	lowStockCeiling = 10
)

// StockInfo describes current availability of one medication.
type StockInfo struct {
	MedicationName string `json:"medication_name"`
	InStock        bool   `json:"in_stock"`
	Quantity       int    `json:"quantity"`
	Status         string `json:"status"`
}

// Reservation is a confirmed hold on stock, to be picked up in person.
type Reservation struct {
	ID             string    `json:"id"`
	MedicationID   string    `json:"medication_id"`
	MedicationName string    `json:"medication_name"`
	UserID         string    `json:"user_id"`
	Quantity       int       `json:"quantity"`
	CreatedAt      time.Time `json:"created_at"`
	PickupBy       time.Time `json:"pickup_by"`
}

// PickupWindow is how long a reservation is held before it lapses.
const PickupWindow = 48 * time.Hour

// Interaction is one detected pairing risk between requested medications.
type Interaction struct {
	Medications []string `json:"medications"`
	Severity    string   `json:"severity"`
	Warning     string   `json:"warning"`
}
