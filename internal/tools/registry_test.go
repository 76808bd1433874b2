package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/pharmacy"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	store, err := pharmacy.Open(pharmacy.Config{Logger: log.NewNop()})
	require.NoError(t, err)
	kit, err := NewKit(store, log.NewNop())
	require.NoError(t, err)
	r := NewRegistry(log.NewNop())
	require.NoError(t, RegisterAll(r, kit))
	return r
}

func TestRegisterAll(t *testing.T) {
	r := testRegistry(t)

	assert.Len(t, r.Names(), len(ToolNames()))
	for _, name := range ToolNames() {
		assert.True(t, r.Has(name), "missing tool %s", name)
		assert.NotEmpty(t, r.Description(name))
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(log.NewNop())
	handler := func(context.Context, StockInput) (Result, error) {
		return ok(nil), nil
	}
	require.NoError(t, Register(r, "dup", "first", handler))
	assert.Error(t, Register(r, "dup", "second", handler))
}

func TestRegistryValidate(t *testing.T) {
	r := testRegistry(t)

	t.Run("valid arguments", func(t *testing.T) {
		err := r.Validate(ToolCheckStock, map[string]any{"name": "Acamol"})
		assert.NoError(t, err)
	})

	t.Run("wrong type rejected", func(t *testing.T) {
		err := r.Validate(ToolCheckStock, map[string]any{"name": 42})
		assert.Error(t, err)
	})

	t.Run("wrong quantity type rejected", func(t *testing.T) {
		err := r.Validate(ToolReserveMedication, map[string]any{
			"user_id":         "user001",
			"medication_name": "Acamol",
			"quantity":        "two",
		})
		assert.Error(t, err)
	})

	t.Run("unknown tool", func(t *testing.T) {
		err := r.Validate("summon_doctor", map[string]any{})
		assert.ErrorContains(t, err, "unknown tool")
	})

	t.Run("nil arguments treated as empty object", func(t *testing.T) {
		err := r.Validate(ToolMedicationInfo, nil)
		// name has no required marker in the inferred schema only if the
		// struct tag omits omitempty; either way this must not panic
		_ = err
	})
}

func TestRegistryExecute(t *testing.T) {
	r := testRegistry(t)

	t.Run("dispatches to handler", func(t *testing.T) {
		res, err := r.Execute(context.Background(), ToolCheckStock, map[string]any{"name": "Acamol"})
		require.NoError(t, err)
		require.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, "Acamol", res.Data["medication"])
	})

	t.Run("business error passes through", func(t *testing.T) {
		res, err := r.Execute(context.Background(), ToolCheckStock, map[string]any{"name": "Panadol"})
		require.NoError(t, err)
		require.Equal(t, StatusError, res.Status)
		assert.Equal(t, ErrCodeNotFound, res.Error.Code)
	})

	t.Run("unknown tool is an error", func(t *testing.T) {
		_, err := r.Execute(context.Background(), "summon_doctor", nil)
		assert.ErrorContains(t, err, "unknown tool")
	})

	t.Run("numeric json arguments decode", func(t *testing.T) {
		res, err := r.Execute(context.Background(), ToolReserveMedication, map[string]any{
			"user_id":         "user003",
			"medication_name": "Acamol",
			"quantity":        float64(1), // JSON numbers arrive as float64
		})
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, res.Status)
	})
}
