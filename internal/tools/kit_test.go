package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apotek/apotek/internal/i18n"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/pharmacy"
)

func testKit(t *testing.T) *Kit {
	t.Helper()
	store, err := pharmacy.Open(pharmacy.Config{Logger: log.NewNop()})
	require.NoError(t, err)
	kit, err := NewKit(store, log.NewNop())
	require.NoError(t, err)
	return kit
}

func TestNewKit(t *testing.T) {
	t.Run("nil store rejected", func(t *testing.T) {
		_, err := NewKit(nil, log.NewNop())
		assert.Error(t, err)
	})

	t.Run("nil logger tolerated", func(t *testing.T) {
		store, err := pharmacy.Open(pharmacy.Config{Logger: log.NewNop()})
		require.NoError(t, err)
		kit, err := NewKit(store, nil)
		require.NoError(t, err)
		assert.NotNil(t, kit)
	})
}

func TestMedicationInfo(t *testing.T) {
	k := testKit(t)

	t.Run("known medication", func(t *testing.T) {
		res, err := k.MedicationInfo(context.Background(), MedicationInfoInput{Name: "Acamol"})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, "Acamol", res.Data["name"])
		assert.Equal(t, "Paracetamol", res.Data["active_ingredient"])
		assert.Equal(t, false, res.Data["requires_prescription"])
		assert.Equal(t, true, res.Data["in_stock"])
	})

	t.Run("hebrew context localizes fields", func(t *testing.T) {
		ctx := ContextWithLanguage(context.Background(), i18n.LangHE)
		res, err := k.MedicationInfo(ctx, MedicationInfoInput{Name: "Acamol"})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, "אקמול", res.Data["name"])
		assert.Equal(t, "פרצטמול", res.Data["active_ingredient"])
	})

	t.Run("unknown medication is business error", func(t *testing.T) {
		res, err := k.MedicationInfo(context.Background(), MedicationInfoInput{Name: "Panadol"})
		require.NoError(t, err)
		require.Equal(t, StatusError, res.Status)
		assert.Equal(t, ErrCodeNotFound, res.Error.Code)
		assert.Contains(t, res.Error.Message, "Panadol")
	})
}

func TestStock(t *testing.T) {
	k := testKit(t)

	res, err := k.Stock(context.Background(), StockInput{Name: "Advil"})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, pharmacy.StockLow, res.Data["status"])
	assert.Equal(t, 7, res.Data["quantity"])

	res, err = k.Stock(context.Background(), StockInput{Name: "Aspirin"})
	require.NoError(t, err)
	assert.Equal(t, pharmacy.StockOut, res.Data["status"])
	assert.Equal(t, false, res.Data["in_stock"])
}

func TestSearchByIngredientTool(t *testing.T) {
	k := testKit(t)

	t.Run("multiple matches", func(t *testing.T) {
		res, err := k.SearchByIngredient(context.Background(), IngredientSearchInput{Ingredient: "Ibuprofen"})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, 2, res.Data["count"])
	})

	t.Run("empty result is success with zero count", func(t *testing.T) {
		res, err := k.SearchByIngredient(context.Background(), IngredientSearchInput{Ingredient: "morphine"})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, 0, res.Data["count"])
		assert.Empty(t, res.Data["medications"])
	})
}

func TestPrescriptions(t *testing.T) {
	k := testKit(t)

	t.Run("user with prescriptions", func(t *testing.T) {
		res, err := k.Prescriptions(context.Background(), PrescriptionsInput{UserID: "user001"})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, "David Cohen", res.Data["user"])
		assert.Equal(t, 2, res.Data["count"])
	})

	t.Run("unknown user", func(t *testing.T) {
		res, err := k.Prescriptions(context.Background(), PrescriptionsInput{UserID: "user999"})
		require.NoError(t, err)
		require.Equal(t, StatusError, res.Status)
		assert.Equal(t, ErrCodeNotFound, res.Error.Code)
	})
}

func TestAllergy(t *testing.T) {
	k := testKit(t)

	t.Run("conflict detected", func(t *testing.T) {
		res, err := k.Allergy(context.Background(), AllergyInput{UserID: "user001", MedicationName: "Nurofen"})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, false, res.Data["safe"])
		assert.Contains(t, res.Data["warning"], "Nurofen")
	})

	t.Run("safe medication", func(t *testing.T) {
		res, err := k.Allergy(context.Background(), AllergyInput{UserID: "user001", MedicationName: "Acamol"})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, true, res.Data["safe"])
	})

	t.Run("substring allergy match", func(t *testing.T) {
		res, err := k.Allergy(context.Background(), AllergyInput{UserID: "user002", MedicationName: "Augmentin"})
		require.NoError(t, err)
		assert.Equal(t, false, res.Data["safe"])
	})
}

func TestPrescriptionEligibility(t *testing.T) {
	k := testKit(t)

	t.Run("otc medication needs no prescription", func(t *testing.T) {
		res, err := k.PrescriptionEligibility(context.Background(), EligibilityInput{
			UserID: "user003", MedicationName: "Acamol",
		})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, false, res.Data["requires_prescription"])
		assert.Equal(t, true, res.Data["eligible"])
	})

	t.Run("prescription on file", func(t *testing.T) {
		res, err := k.PrescriptionEligibility(context.Background(), EligibilityInput{
			UserID: "user001", MedicationName: "Augmentin",
		})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, true, res.Data["requires_prescription"])
		assert.Equal(t, true, res.Data["eligible"])
	})

	t.Run("prescription required, none on file", func(t *testing.T) {
		res, err := k.PrescriptionEligibility(context.Background(), EligibilityInput{
			UserID: "user003", MedicationName: "Ventolin",
		})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, false, res.Data["eligible"])
		assert.Contains(t, res.Data["message"], "doctor")
	})

	t.Run("unknown user", func(t *testing.T) {
		res, err := k.PrescriptionEligibility(context.Background(), EligibilityInput{
			UserID: "user999", MedicationName: "Acamol",
		})
		require.NoError(t, err)
		require.Equal(t, StatusError, res.Status)
		assert.Equal(t, ErrCodeNotFound, res.Error.Code)
	})
}

func TestReserveTool(t *testing.T) {
	t.Run("successful reservation", func(t *testing.T) {
		k := testKit(t)
		res, err := k.Reserve(context.Background(), ReserveInput{
			UserID: "user003", MedicationName: "Acamol", Quantity: 2,
		})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Contains(t, res.Data["reservation_id"], "RES-")
		assert.NotEmpty(t, res.Data["pickup_by"])
	})

	t.Run("prescription medication without prescription", func(t *testing.T) {
		k := testKit(t)
		res, err := k.Reserve(context.Background(), ReserveInput{
			UserID: "user003", MedicationName: "Augmentin", Quantity: 1,
		})
		require.NoError(t, err)
		require.Equal(t, StatusError, res.Status)
		assert.Equal(t, ErrCodePrescription, res.Error.Code)
	})

	t.Run("prescription medication with prescription on file", func(t *testing.T) {
		k := testKit(t)
		res, err := k.Reserve(context.Background(), ReserveInput{
			UserID: "user002", MedicationName: "Ventolin", Quantity: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, res.Status)
	})

	t.Run("out of stock", func(t *testing.T) {
		k := testKit(t)
		res, err := k.Reserve(context.Background(), ReserveInput{
			UserID: "user003", MedicationName: "Aspirin", Quantity: 1,
		})
		require.NoError(t, err)
		require.Equal(t, StatusError, res.Status)
		assert.Equal(t, ErrCodeStock, res.Error.Code)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		k := testKit(t)
		res, err := k.Reserve(context.Background(), ReserveInput{
			UserID: "user003", MedicationName: "Acamol", Quantity: 0,
		})
		require.NoError(t, err)
		require.Equal(t, StatusError, res.Status)
		assert.Equal(t, ErrCodeValidation, res.Error.Code)
	})
}

func TestInteractionsTool(t *testing.T) {
	k := testKit(t)

	t.Run("requires two medications", func(t *testing.T) {
		res, err := k.Interactions(context.Background(), InteractionsInput{Medications: []string{"Nurofen"}})
		require.NoError(t, err)
		require.Equal(t, StatusError, res.Status)
		assert.Equal(t, ErrCodeValidation, res.Error.Code)
	})

	t.Run("nsaid pair flagged", func(t *testing.T) {
		res, err := k.Interactions(context.Background(), InteractionsInput{Medications: []string{"Nurofen", "Aspirin"}})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, true, res.Data["interactions_found"])
	})
}

func TestPrescriptionRequirement(t *testing.T) {
	k := testKit(t)

	res, err := k.PrescriptionRequirement(context.Background(), RequirementInput{Name: "Augmentin"})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, true, res.Data["requires_prescription"])

	res, err = k.PrescriptionRequirement(context.Background(), RequirementInput{Name: "Acamol"})
	require.NoError(t, err)
	assert.Equal(t, false, res.Data["requires_prescription"])
}
