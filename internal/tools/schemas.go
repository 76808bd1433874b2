package tools

// MedicationInfoInput defines input for get_medication_info.
type MedicationInfoInput struct {
	Name string `json:"name" jsonschema_description:"The medication name in English or Hebrew (e.g., 'Acamol', 'אקמול')"`
}

// StockInput defines input for check_stock.
type StockInput struct {
	Name string `json:"name" jsonschema_description:"The medication name to check stock for"`
}

// DosageInput defines input for get_dosage_info.
type DosageInput struct {
	Name string `json:"name" jsonschema_description:"The medication name to get dosage instructions for"`
}

// IngredientSearchInput defines input for search_by_ingredient.
type IngredientSearchInput struct {
	Ingredient string `json:"ingredient" jsonschema_description:"The active ingredient to search for (e.g., 'Ibuprofen'), partial names match"`
}

// PrescriptionsInput defines input for get_user_prescriptions.
type PrescriptionsInput struct {
	UserID string `json:"user_id" jsonschema_description:"The customer's user ID (e.g., 'user001')"`
}

// AllergyInput defines input for check_allergy.
type AllergyInput struct {
	UserID         string `json:"user_id" jsonschema_description:"The customer's user ID"`
	MedicationName string `json:"medication_name" jsonschema_description:"The medication to check against the customer's allergies"`
}

// EligibilityInput defines input for verify_prescription_eligibility.
type EligibilityInput struct {
	UserID         string `json:"user_id" jsonschema_description:"The customer's user ID"`
	MedicationName string `json:"medication_name" jsonschema_description:"The medication to verify the prescription for"`
}

// ReserveInput defines input for reserve_medication.
type ReserveInput struct {
	UserID         string `json:"user_id" jsonschema_description:"The customer's user ID"`
	MedicationName string `json:"medication_name" jsonschema_description:"The medication to reserve"`
	Quantity       int    `json:"quantity" jsonschema_description:"Number of units to reserve, must be at least 1"`
}

// RequirementInput defines input for check_prescription_requirement.
type RequirementInput struct {
	Name string `json:"name" jsonschema_description:"The medication name to check"`
}

// InteractionsInput defines input for check_drug_interactions.
type InteractionsInput struct {
	Medications []string `json:"medications" jsonschema_description:"Two or more medication names to check for interactions"`
}
