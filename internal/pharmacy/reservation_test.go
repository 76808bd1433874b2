package pharmacy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apotek/apotek/internal/i18n"
	"github.com/apotek/apotek/internal/log"
)

func TestReserve(t *testing.T) {
	t.Run("successful reservation decrements stock", func(t *testing.T) {
		s := testStore(t)
		before, err := s.StockStatus("Acamol")
		require.NoError(t, err)

		res, err := s.Reserve("user003", "Acamol", 2)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.ID, "RES-"))
		assert.Equal(t, "Acamol", res.MedicationName)
		assert.Equal(t, 2, res.Quantity)
		assert.Equal(t, PickupWindow, res.PickupBy.Sub(res.CreatedAt))

		after, err := s.StockStatus("Acamol")
		require.NoError(t, err)
		assert.Equal(t, before.Quantity-2, after.Quantity)
	})

	t.Run("quantity below one", func(t *testing.T) {
		s := testStore(t)
		_, err := s.Reserve("user003", "Acamol", 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("unknown medication", func(t *testing.T) {
		s := testStore(t)
		_, err := s.Reserve("user003", "Panadol", 1)
		assert.ErrorIs(t, err, ErrMedicationNotFound)
	})

	t.Run("insufficient stock leaves stock untouched", func(t *testing.T) {
		s := testStore(t)
		_, err := s.Reserve("user003", "Advil", 100)
		require.ErrorIs(t, err, ErrInsufficientStock)

		info, err := s.StockStatus("Advil")
		require.NoError(t, err)
		assert.Equal(t, 7, info.Quantity)
	})

	t.Run("out of stock", func(t *testing.T) {
		s := testStore(t)
		_, err := s.Reserve("user003", "Aspirin", 1)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})
}

// With one unit left, exactly one of many concurrent reservations succeeds.
func TestReserveConcurrentLastUnit(t *testing.T) {
	s := testStore(t)

	const goroutines = 8
	var wg sync.WaitGroup
	errs := make([]error, goroutines)

	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Reserve("user003", "Zyrtec", 1) // stock_quantity: 1
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, succeeded)

	info, err := s.StockStatus("Zyrtec")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Quantity)
}

// Lookups hand out snapshots: a record obtained before a reservation keeps
// its stock count, and only a fresh lookup sees the decrement.
func TestLookupSnapshotsIsolatedFromReserve(t *testing.T) {
	s := testStore(t)

	before, ok := s.MedicationByName("Acamol")
	require.True(t, ok)
	qty := before.StockQuantity

	_, err := s.Reserve("user003", "Acamol", 5)
	require.NoError(t, err)

	assert.Equal(t, qty, before.StockQuantity, "earlier snapshot must not change")
	after, ok := s.MedicationByName("Acamol")
	require.True(t, ok)
	assert.Equal(t, qty-5, after.StockQuantity)

	// Mutating a snapshot never reaches the catalog.
	after.StockQuantity = 0
	fresh, ok := s.MedicationByName("Acamol")
	require.True(t, ok)
	assert.Equal(t, qty-5, fresh.StockQuantity)
}

// Readers localize records while reservations decrement stock. Meaningful
// under the race detector.
func TestConcurrentReadsDuringReserve(t *testing.T) {
	s := testStore(t)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if med, ok := s.MedicationByName("Acamol"); ok {
					_ = med.Localize(i18n.LangEN)
				}
				for _, med := range s.SearchByIngredient("Paracetamol") {
					_ = med.Localize(i18n.LangHE)
				}
			}
		}()
	}

	for range 20 {
		_, err := s.Reserve("user003", "Acamol", 1)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()

	info, err := s.StockStatus("Acamol")
	require.NoError(t, err)
	assert.Equal(t, 130, info.Quantity)
}

func TestReservePersistsToDataDir(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{DataDir: dir, Logger: log.NewNop()})
	require.NoError(t, err)

	res1, err := s.Reserve("user001", "Augmentin", 1)
	require.NoError(t, err)
	res2, err := s.Reserve("user002", "Ventolin", 2)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "reservations.json"))
	require.NoError(t, err)

	var all []*Reservation
	require.NoError(t, json.Unmarshal(data, &all))
	require.Len(t, all, 2)
	assert.Equal(t, res1.ID, all[0].ID)
	assert.Equal(t, res2.ID, all[1].ID)
}

func TestOpenWithDataDirOverride(t *testing.T) {
	dir := t.TempDir()
	meds := `{"medications":[{"id":"x1","name":"בדיקה","name_en":"Testol","active_ingredient":"Testine","stock_quantity":5,"price":1}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "medications.json"), []byte(meds), 0o600))

	s, err := Open(Config{DataDir: dir, Logger: log.NewNop()})
	require.NoError(t, err)

	// medications come from the directory, users fall back to embedded
	_, ok := s.MedicationByName("Testol")
	assert.True(t, ok)
	_, ok = s.MedicationByName("Acamol")
	assert.False(t, ok)
	_, ok = s.User("user001")
	assert.True(t, ok)
}
