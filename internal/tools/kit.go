// Package tools provides the assistant's pharmacy tools: typed handlers,
// a schema-validating registry, and Genkit registration.
package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apotek/apotek/internal/i18n"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/pharmacy"
)

// Kit holds the pharmacy tool handlers over the data store.
// Handlers return business failures inside Result and reserve Go errors for
// infrastructure problems, so the model always gets something to work with.
type Kit struct {
	store  *pharmacy.Store
	logger log.Logger
}

// NewKit creates a tool kit over the given store.
func NewKit(store *pharmacy.Store, logger log.Logger) (*Kit, error) {
	if store == nil {
		return nil, fmt.Errorf("pharmacy store is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Kit{store: store, logger: logger}, nil
}

// MedicationInfo returns the full localized record for one medication.
func (k *Kit) MedicationInfo(ctx context.Context, in MedicationInfoInput) (Result, error) {
	k.logger.Debug("MedicationInfo called", "name", in.Name)

	med, found := k.store.MedicationByName(in.Name)
	if !found {
		return k.medicationNotFound(in.Name), nil
	}

	view := med.Localize(LanguageFromContext(ctx))
	return ok(map[string]any{
		"name":                  view.Name,
		"active_ingredient":     view.ActiveIngredient,
		"dosage":                view.Dosage,
		"usage":                 view.Usage,
		"warnings":              view.Warnings,
		"requires_prescription": view.RequiresPrescription,
		"price":                 view.Price,
		"in_stock":              view.StockQuantity > 0,
	}), nil
}

// Stock reports availability for one medication.
func (k *Kit) Stock(_ context.Context, in StockInput) (Result, error) {
	k.logger.Debug("Stock called", "name", in.Name)

	info, err := k.store.StockStatus(in.Name)
	if err != nil {
		return k.medicationNotFound(in.Name), nil
	}
	return ok(map[string]any{
		"medication": info.MedicationName,
		"in_stock":   info.InStock,
		"quantity":   info.Quantity,
		"status":     info.Status,
	}), nil
}

// Dosage returns dosage instructions and warnings for one medication.
func (k *Kit) Dosage(ctx context.Context, in DosageInput) (Result, error) {
	k.logger.Debug("Dosage called", "name", in.Name)

	med, found := k.store.MedicationByName(in.Name)
	if !found {
		return k.medicationNotFound(in.Name), nil
	}

	view := med.Localize(LanguageFromContext(ctx))
	return ok(map[string]any{
		"medication": view.Name,
		"dosage":     view.Dosage,
		"warnings":   view.Warnings,
	}), nil
}

// SearchByIngredient lists medications containing an active ingredient.
// An empty list is a complete, truthful answer.
func (k *Kit) SearchByIngredient(ctx context.Context, in IngredientSearchInput) (Result, error) {
	k.logger.Debug("SearchByIngredient called", "ingredient", in.Ingredient)

	lang := LanguageFromContext(ctx)
	meds := k.store.SearchByIngredient(in.Ingredient)

	summaries := make([]map[string]any, 0, len(meds))
	for _, med := range meds {
		view := med.Localize(lang)
		summaries = append(summaries, map[string]any{
			"name":                  view.Name,
			"active_ingredient":     view.ActiveIngredient,
			"requires_prescription": view.RequiresPrescription,
			"price":                 view.Price,
			"in_stock":              view.StockQuantity > 0,
		})
	}
	return ok(map[string]any{
		"ingredient":  in.Ingredient,
		"count":       len(summaries),
		"medications": summaries,
	}), nil
}

// Prescriptions lists the medications a registered customer holds
// prescriptions for.
func (k *Kit) Prescriptions(ctx context.Context, in PrescriptionsInput) (Result, error) {
	k.logger.Debug("Prescriptions called", "user_id", in.UserID)

	user, found := k.store.User(in.UserID)
	if !found {
		return k.userNotFound(in.UserID), nil
	}
	meds, err := k.store.UserPrescriptions(in.UserID)
	if err != nil {
		return k.userNotFound(in.UserID), nil
	}

	lang := LanguageFromContext(ctx)
	items := make([]map[string]any, 0, len(meds))
	for _, med := range meds {
		view := med.Localize(lang)
		items = append(items, map[string]any{
			"name":   view.Name,
			"dosage": view.Dosage,
			"usage":  view.Usage,
		})
	}
	name := user.NameEN
	if lang == i18n.LangHE {
		name = user.Name
	}
	return ok(map[string]any{
		"user":          name,
		"count":         len(items),
		"prescriptions": items,
	}), nil
}

// Allergy checks a medication against a customer's recorded allergies.
func (k *Kit) Allergy(_ context.Context, in AllergyInput) (Result, error) {
	k.logger.Debug("Allergy called", "user_id", in.UserID, "medication", in.MedicationName)

	user, found := k.store.User(in.UserID)
	if !found {
		return k.userNotFound(in.UserID), nil
	}
	med, found := k.store.MedicationByName(in.MedicationName)
	if !found {
		return k.medicationNotFound(in.MedicationName), nil
	}

	matches := k.store.AllergyMatches(user, med)
	data := map[string]any{
		"medication": med.NameEN,
		"safe":       len(matches) == 0,
		"allergies":  matches,
	}
	if len(matches) > 0 {
		data["warning"] = fmt.Sprintf(
			"%s contains or matches a recorded allergy (%v). Do not dispense without pharmacist approval.",
			med.NameEN, matches)
		k.logger.Warn("allergy conflict detected",
			"user_id", in.UserID, "medication", med.NameEN, "allergies", matches)
	}
	return ok(data), nil
}

// PrescriptionEligibility reports whether a customer may purchase a
// medication: either it needs no prescription, or the customer holds one.
func (k *Kit) PrescriptionEligibility(_ context.Context, in EligibilityInput) (Result, error) {
	k.logger.Debug("PrescriptionEligibility called",
		"user_id", in.UserID, "medication", in.MedicationName)

	user, found := k.store.User(in.UserID)
	if !found {
		return k.userNotFound(in.UserID), nil
	}
	med, found := k.store.MedicationByName(in.MedicationName)
	if !found {
		return k.medicationNotFound(in.MedicationName), nil
	}

	if !med.RequiresPrescription {
		return ok(map[string]any{
			"medication":            med.NameEN,
			"requires_prescription": false,
			"eligible":              true,
			"message":               "This medication does not require a prescription.",
		}), nil
	}

	eligible := hasPrescription(user, med.ID)
	message := "Prescription required and none is on file. Refer the customer to their doctor."
	if eligible {
		message = "Valid prescription on file."
	}
	return ok(map[string]any{
		"medication":            med.NameEN,
		"requires_prescription": true,
		"eligible":              eligible,
		"message":               message,
	}), nil
}

// Reserve places a hold on stock for in-person pickup.
// Prescription medications require the customer to hold a matching
// prescription.
func (k *Kit) Reserve(_ context.Context, in ReserveInput) (Result, error) {
	k.logger.Debug("Reserve called",
		"user_id", in.UserID, "medication", in.MedicationName, "quantity", in.Quantity)

	user, found := k.store.User(in.UserID)
	if !found {
		return k.userNotFound(in.UserID), nil
	}
	med, found := k.store.MedicationByName(in.MedicationName)
	if !found {
		return k.medicationNotFound(in.MedicationName), nil
	}

	if med.RequiresPrescription && !hasPrescription(user, med.ID) {
		return fail(ErrCodePrescription,
			fmt.Sprintf("%s requires a prescription and %s does not hold one", med.NameEN, user.NameEN),
			map[string]any{"medication": med.NameEN}), nil
	}

	res, err := k.store.Reserve(in.UserID, in.MedicationName, in.Quantity)
	if err != nil {
		return reserveFailure(err, in), nil
	}

	return ok(map[string]any{
		"reservation_id": res.ID,
		"medication":     res.MedicationName,
		"quantity":       res.Quantity,
		"pickup_by":      res.PickupBy.Format(time.RFC3339),
		"message":        "Reservation confirmed. Pick up at the pharmacy within 48 hours.",
	}), nil
}

// PrescriptionRequirement reports whether a medication is prescription-only.
func (k *Kit) PrescriptionRequirement(_ context.Context, in RequirementInput) (Result, error) {
	k.logger.Debug("PrescriptionRequirement called", "name", in.Name)

	med, found := k.store.MedicationByName(in.Name)
	if !found {
		return k.medicationNotFound(in.Name), nil
	}
	return ok(map[string]any{
		"medication":            med.NameEN,
		"requires_prescription": med.RequiresPrescription,
	}), nil
}

// Interactions checks a set of medications for known pairing risks.
func (k *Kit) Interactions(_ context.Context, in InteractionsInput) (Result, error) {
	k.logger.Debug("Interactions called", "medications", in.Medications)

	if len(in.Medications) < 2 {
		return fail(ErrCodeValidation,
			"at least two medications are required to check interactions", nil), nil
	}

	found, unknown := k.store.CheckInteractions(in.Medications)
	data := map[string]any{
		"interactions_found": len(found) > 0,
		"interactions":       found,
	}
	if len(unknown) > 0 {
		data["unknown_medications"] = unknown
	}
	return ok(data), nil
}

func (k *Kit) medicationNotFound(name string) Result {
	return fail(ErrCodeNotFound,
		fmt.Sprintf("medication %q not found in the catalog; try search_by_ingredient for alternatives", name),
		map[string]any{"name": name})
}

func (k *Kit) userNotFound(id string) Result {
	return fail(ErrCodeNotFound,
		fmt.Sprintf("no customer registered with ID %q; ask the customer for their user ID", id),
		map[string]any{"user_id": id})
}

func reserveFailure(err error, in ReserveInput) Result {
	switch {
	case errors.Is(err, pharmacy.ErrInvalidQuantity):
		return fail(ErrCodeValidation, err.Error(),
			map[string]any{"quantity": in.Quantity})
	case errors.Is(err, pharmacy.ErrInsufficientStock):
		return fail(ErrCodeStock, err.Error(),
			map[string]any{"medication": in.MedicationName})
	default:
		return fail(ErrCodeNotFound, err.Error(), nil)
	}
}

func hasPrescription(u *pharmacy.User, medID string) bool {
	for _, id := range u.Prescriptions {
		if id == medID {
			return true
		}
	}
	return false
}
