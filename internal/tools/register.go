package tools

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Tool name constants. These are the names the model plans with, so they
// stay stable across providers.
const (
	ToolMedicationInfo          = "get_medication_info"
	ToolCheckStock              = "check_stock"
	ToolDosageInfo              = "get_dosage_info"
	ToolSearchByIngredient      = "search_by_ingredient"
	ToolUserPrescriptions       = "get_user_prescriptions"
	ToolEligibility             = "verify_prescription_eligibility"
	ToolCheckAllergy            = "check_allergy"
	ToolReserveMedication       = "reserve_medication"
	ToolPrescriptionRequirement = "check_prescription_requirement"
	ToolDrugInteractions        = "check_drug_interactions"
)

// toolNames is the single source of truth for tool names, in the order
// they are advertised to the model.
var toolNames = []string{
	ToolMedicationInfo,
	ToolCheckStock,
	ToolDosageInfo,
	ToolSearchByIngredient,
	ToolUserPrescriptions,
	ToolEligibility,
	ToolCheckAllergy,
	ToolReserveMedication,
	ToolPrescriptionRequirement,
	ToolDrugInteractions,
}

// ToolNames returns all tool names.
func ToolNames() []string {
	return toolNames
}

// Descriptions the model plans with. Phrased as capability plus the facts
// the model needs to call correctly, matching the catalog's behavior.
var toolDescriptions = map[string]string{
	ToolMedicationInfo: "Get complete information about a medication: active ingredient, " +
		"dosage, usage, warnings, prescription requirement, and price. " +
		"Accepts English or Hebrew brand names. " +
		"Use this FIRST when a customer asks about a specific medication.",
	ToolCheckStock: "Check current stock for a medication. " +
		"Returns quantity and a status of available, low_stock, or out_of_stock. " +
		"Always check stock before offering to reserve.",
	ToolDosageInfo: "Get dosage instructions and safety warnings for a medication. " +
		"Use this when the customer asks how much or how often to take something.",
	ToolSearchByIngredient: "Find all medications containing an active ingredient. " +
		"Partial names match (e.g., 'paracet' finds Paracetamol products). " +
		"An empty result means the pharmacy carries nothing with that ingredient; " +
		"say so, never invent products.",
	ToolUserPrescriptions: "List the prescriptions on file for a registered customer. " +
		"Requires the customer's user ID. Ask for the ID if you do not have it.",
	ToolEligibility: "Verify whether a customer may purchase a specific medication: " +
		"reports if it requires a prescription and whether the customer holds one. " +
		"Requires the customer's user ID. " +
		"Use this when the customer asks if they have a prescription for a medication.",
	ToolCheckAllergy: "Check a medication against a customer's recorded allergies. " +
		"Requires the customer's user ID. " +
		"MUST be called before reserving any medication for a customer.",
	ToolReserveMedication: "Reserve units of a medication for in-person pickup within 48 hours. " +
		"Requires the customer's user ID and a prior allergy check for this medication. " +
		"Prescription medications can only be reserved by customers holding a prescription.",
	ToolPrescriptionRequirement: "Check whether a medication requires a prescription. " +
		"Use this before discussing a reservation for antibiotics or other " +
		"prescription-only products.",
	ToolDrugInteractions: "Check two or more medications for known interactions. " +
		"Use this when a customer mentions taking several medications together.",
}

// Description returns the model-facing description of a tool name, empty
// for unknown names.
func Description(name string) string {
	return toolDescriptions[name]
}

// RegisterAll registers every pharmacy tool in the registry.
func RegisterAll(r *Registry, k *Kit) error {
	if r == nil || k == nil {
		return fmt.Errorf("registry and kit are required")
	}

	if err := Register(r, ToolMedicationInfo, toolDescriptions[ToolMedicationInfo], k.MedicationInfo); err != nil {
		return err
	}
	if err := Register(r, ToolCheckStock, toolDescriptions[ToolCheckStock], k.Stock); err != nil {
		return err
	}
	if err := Register(r, ToolDosageInfo, toolDescriptions[ToolDosageInfo], k.Dosage); err != nil {
		return err
	}
	if err := Register(r, ToolSearchByIngredient, toolDescriptions[ToolSearchByIngredient], k.SearchByIngredient); err != nil {
		return err
	}
	if err := Register(r, ToolUserPrescriptions, toolDescriptions[ToolUserPrescriptions], k.Prescriptions); err != nil {
		return err
	}
	if err := Register(r, ToolEligibility, toolDescriptions[ToolEligibility], k.PrescriptionEligibility); err != nil {
		return err
	}
	if err := Register(r, ToolCheckAllergy, toolDescriptions[ToolCheckAllergy], k.Allergy); err != nil {
		return err
	}
	if err := Register(r, ToolReserveMedication, toolDescriptions[ToolReserveMedication], k.Reserve); err != nil {
		return err
	}
	if err := Register(r, ToolPrescriptionRequirement, toolDescriptions[ToolPrescriptionRequirement], k.PrescriptionRequirement); err != nil {
		return err
	}
	if err := Register(r, ToolDrugInteractions, toolDescriptions[ToolDrugInteractions], k.Interactions); err != nil {
		return err
	}
	return nil
}

// Define registers the tools with Genkit so they are advertised to the
// model with proper schemas. The orchestration loop requests returned tool
// calls instead of framework-side execution, so these definitions exist
// for advertisement; the handlers still work if invoked directly.
func Define(g *genkit.Genkit, k *Kit) ([]ai.Tool, error) {
	if g == nil || k == nil {
		return nil, fmt.Errorf("genkit instance and kit are required")
	}

	return []ai.Tool{
		defineTool(g, ToolMedicationInfo, k.MedicationInfo),
		defineTool(g, ToolCheckStock, k.Stock),
		defineTool(g, ToolDosageInfo, k.Dosage),
		defineTool(g, ToolSearchByIngredient, k.SearchByIngredient),
		defineTool(g, ToolUserPrescriptions, k.Prescriptions),
		defineTool(g, ToolEligibility, k.PrescriptionEligibility),
		defineTool(g, ToolCheckAllergy, k.Allergy),
		defineTool(g, ToolReserveMedication, k.Reserve),
		defineTool(g, ToolPrescriptionRequirement, k.PrescriptionRequirement),
		defineTool(g, ToolDrugInteractions, k.Interactions),
	}, nil
}

func defineTool[In any](g *genkit.Genkit, name string, fn func(context.Context, In) (Result, error)) ai.Tool {
	return genkit.DefineTool(g, name, toolDescriptions[name],
		func(tc *ai.ToolContext, in In) (Result, error) {
			return fn(tc.Context, in)
		})
}
