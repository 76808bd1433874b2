// Package pharmacy is the data store adapter for the assistant's tools.
//
// Records load from JSON (embedded defaults, overridable by a data
// directory) and are served from memory. Lookups return snapshot copies,
// so callers read them without holding any lock; only Reserve mutates the
// live records, under the store lock, serialized per medication so stock
// never over-commits.
package pharmacy

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/apotek/apotek/internal/log"
)

//go:embed data/*.json
var defaultData embed.FS

// Sentinel errors for store operations.
var (
	ErrMedicationNotFound = errors.New("medication not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// Config configures a Store.
type Config struct {
	// DataDir overrides the embedded catalog when it contains
	// medications.json / users.json. Reservations persist there too.
	DataDir string

	Logger log.Logger
}

// Store holds the pharmacy catalog and customer records.
// Safe for concurrent use by multiple goroutines.
type Store struct {
	mu    sync.RWMutex
	meds  []*Medication
	users map[string]*User

	// Per-medication reservation locks, fixed after load.
	resMu map[string]*sync.Mutex

	reservationsPath string
	logger           log.Logger
}

type medicationFile struct {
	Medications []*Medication `json:"medications"`
}

type userFile struct {
	Users []*User `json:"users"`
}

// Open loads the store from cfg.DataDir, falling back to the embedded
// catalog for any file the directory does not provide.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	var mf medicationFile
	if err := loadJSON(cfg.DataDir, "medications.json", &mf); err != nil {
		return nil, fmt.Errorf("loading medications: %w", err)
	}
	var uf userFile
	if err := loadJSON(cfg.DataDir, "users.json", &uf); err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}

	s := New(mf.Medications, uf.Users, logger)
	if cfg.DataDir != "" {
		s.reservationsPath = filepath.Join(cfg.DataDir, "reservations.json")
	}

	logger.Info("pharmacy store loaded",
		"medications", len(mf.Medications),
		"users", len(uf.Users))
	return s, nil
}

// New builds a store from in-memory records. Used by Open and by tests.
func New(meds []*Medication, users []*User, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Store{
		meds:   meds,
		users:  make(map[string]*User, len(users)),
		resMu:  make(map[string]*sync.Mutex, len(meds)),
		logger: logger,
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	for _, m := range meds {
		s.resMu[m.ID] = &sync.Mutex{}
	}
	return s
}

// loadJSON reads name from dir when present, otherwise from the embedded
// defaults.
func loadJSON(dir, name string, v any) error {
	if dir != "" {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, v); err != nil {
				return fmt.Errorf("decoding %s: %w", path, err)
			}
			return nil
		case !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("reading %s: %w", path, err)
		}
	}

	data, err := defaultData.ReadFile("data/" + name)
	if err != nil {
		return fmt.Errorf("reading embedded %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding embedded %s: %w", name, err)
	}
	return nil
}

// MedicationByName finds a medication by exact Hebrew or English name,
// case-insensitively. Returns false when nothing matches.
// The returned record is a snapshot: later reservations do not change it.
func (s *Store) MedicationByName(name string) (*Medication, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.meds {
		if strings.ToLower(m.Name) == needle || strings.ToLower(m.NameEN) == needle {
			cp := *m
			return &cp, true
		}
	}
	return nil, false
}

// SearchByIngredient returns all medications whose active ingredient
// (either language) contains the given substring, case-insensitively.
// An empty result is a valid answer, not an error.
func (s *Store) SearchByIngredient(ingredient string) []*Medication {
	needle := strings.ToLower(strings.TrimSpace(ingredient))
	if needle == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Medication
	for _, m := range s.meds {
		if strings.Contains(strings.ToLower(m.ActiveIngredient), needle) ||
			strings.Contains(strings.ToLower(m.ActiveIngredientHE), needle) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}

// Medications returns a snapshot of the full catalog.
func (s *Store) Medications() []*Medication {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Medication, len(s.meds))
	for i, m := range s.meds {
		cp := *m
		out[i] = &cp
	}
	return out
}

// StockStatus reports availability for a medication by name.
func (s *Store) StockStatus(name string) (StockInfo, error) {
	med, ok := s.MedicationByName(name)
	if !ok {
		return StockInfo{}, fmt.Errorf("%w: %q", ErrMedicationNotFound, name)
	}
	qty := med.StockQuantity

	status := StockOut
	switch {
	case qty > lowStockCeiling:
		status = StockAvailable
	case qty > 0:
		status = StockLow
	}

	return StockInfo{
		MedicationName: med.NameEN,
		InStock:        qty > 0,
		Quantity:       qty,
		Status:         status,
	}, nil
}

// User returns a customer record by ID.
func (s *Store) User(id string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.TrimSpace(id)]
	return u, ok
}

// UserPrescriptions returns the medications a user holds prescriptions for.
// Unknown user is an error; a user with no prescriptions gets an empty list.
func (s *Store) UserPrescriptions(id string) ([]*Medication, error) {
	u, ok := s.User(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Medication
	for _, medID := range u.Prescriptions {
		if m := s.byIDLocked(medID); m != nil {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// byIDLocked returns the live catalog record for id. Callers must hold
// s.mu; the catalog never changes shape after load, only stock counts.
func (s *Store) byIDLocked(id string) *Medication {
	for _, m := range s.meds {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// AllergyMatches returns the user's allergies that match the medication,
// comparing against both the active ingredient and the brand names.
// A substring match counts: "penicillin" flags "amoxicillin/penicillin".
func (s *Store) AllergyMatches(u *User, med *Medication) []string {
	ingredient := strings.ToLower(med.ActiveIngredient)
	nameEN := strings.ToLower(med.NameEN)
	nameHE := strings.ToLower(med.Name)

	var matches []string
	for _, a := range u.Allergies {
		al := strings.ToLower(a)
		if al == ingredient || al == nameEN || al == nameHE || strings.Contains(ingredient, al) {
			matches = append(matches, a)
		}
	}
	return matches
}

// nsaidIngredients drive the pairing rule in CheckInteractions.
var nsaidIngredients = []string{"ibuprofen", "naproxen", "aspirin", "diclofenac"}

// CheckInteractions applies the catalog's pairing rules to the named
// medications. Unknown names are reported back rather than failing the call.
func (s *Store) CheckInteractions(names []string) (found []Interaction, unknown []string) {
	var nsaids []string
	for _, name := range names {
		med, ok := s.MedicationByName(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		ing := strings.ToLower(med.ActiveIngredient)
		for _, n := range nsaidIngredients {
			if strings.Contains(ing, n) {
				nsaids = append(nsaids, med.NameEN)
				break
			}
		}
	}

	if len(nsaids) >= 2 {
		found = append(found, Interaction{
			Medications: nsaids,
			Severity:    "moderate",
			Warning:     "Combining NSAIDs may increase stomach irritation risk. Take with food.",
		})
	}
	return found, unknown
}
