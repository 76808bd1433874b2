package pharmacy

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// Reserve holds quantity units of a medication for pickup.
//
// Reservations for the same medication are serialized by a per-record lock,
// so stock is checked and decremented atomically: with one unit left, exactly
// one of two concurrent reservations succeeds. Reservations for different
// medications do not contend.
func (s *Store) Reserve(userID, medicationName string, quantity int) (*Reservation, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	med, ok := s.MedicationByName(medicationName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMedicationNotFound, medicationName)
	}

	s.mu.RLock()
	lock := s.resMu[med.ID]
	s.mu.RUnlock()

	lock.Lock()
	defer lock.Unlock()

	// med is a snapshot; the decrement goes to the live record, under the
	// write lock so concurrent snapshot reads never observe a torn count.
	s.mu.Lock()
	live := s.byIDLocked(med.ID)
	if live.StockQuantity < quantity {
		available := live.StockQuantity
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: requested %d, available %d",
			ErrInsufficientStock, quantity, available)
	}
	live.StockQuantity -= quantity
	s.mu.Unlock()

	now := time.Now()
	res := &Reservation{
		ID:             newReservationID(),
		MedicationID:   med.ID,
		MedicationName: med.NameEN,
		UserID:         userID,
		Quantity:       quantity,
		CreatedAt:      now,
		PickupBy:       now.Add(PickupWindow),
	}

	// Best-effort durability; the in-memory decrement is authoritative.
	if err := s.persistReservation(res); err != nil {
		s.logger.Warn("persisting reservation", "id", res.ID, "error", err)
	}

	s.logger.Info("medication reserved",
		"reservation_id", res.ID,
		"medication", med.NameEN,
		"quantity", quantity,
		"user_id", userID)
	return res, nil
}

// newReservationID generates a pickup reference like "RES-48213".
func newReservationID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to a time-derived suffix.
		return fmt.Sprintf("RES-%05d", time.Now().UnixNano()%100000)
	}
	return fmt.Sprintf("RES-%05d", n.Int64()+10000)
}

// persistReservation appends the reservation to the reservations file under
// an advisory file lock, so a second process sharing the data directory
// cannot interleave writes. No-op when the store runs purely embedded.
func (s *Store) persistReservation(res *Reservation) error {
	if s.reservationsPath == "" {
		return nil
	}

	fl := flock.New(s.reservationsPath + ".lock")
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("locking reservations file: %w", err)
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("unlocking reservations file", "error", err)
		}
	}()

	var all []*Reservation
	data, err := os.ReadFile(s.reservationsPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &all); err != nil {
			return fmt.Errorf("decoding reservations file: %w", err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("reading reservations file: %w", err)
	}

	all = append(all, res)
	out, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding reservations: %w", err)
	}
	if err := os.WriteFile(s.reservationsPath, out, 0o600); err != nil {
		return fmt.Errorf("writing reservations file: %w", err)
	}
	return nil
}
