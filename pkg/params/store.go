// Package params implements the parameter table shared between the control
// context and the companion context.
//
// Every field has exactly one writer. Cells are single machine words accessed
// atomically, so a reader always observes a complete value and the most recent
// write becomes visible to the other context no later than its next read.
// Nothing blocks and nothing is queued: the last write wins.
package params

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/chewxy/math32"
)

var (
	// ErrUnknownID is returned for ids that do not name a register of the store.
	ErrUnknownID = errors.New("unknown parameter id")
	// ErrNotOwner is returned when a port writes a field owned by the other context.
	ErrNotOwner = errors.New("parameter is owned by another context")
	// ErrKind is returned when a value's kind does not match the field.
	ErrKind = errors.New("parameter kind mismatch")
	// ErrRange is returned when a value is not a usable setting for the field.
	ErrRange = errors.New("parameter value out of range")
)

// Store is the shared register bank.
type Store struct {
	banks int
	cells []atomic.Uint32
}

// Entry pairs an id with its value.
type Entry struct {
	ID    ID
	Value Value
}

// New creates a store with the given number of inverter banks, at most MaxBanks.
func New(banks int) *Store {
	banks = max(0, min(banks, MaxBanks))
	return &Store{
		banks: banks,
		cells: make([]atomic.Uint32, boardFieldCount+banks*int(bankFieldCount)),
	}
}

// Banks returns the number of inverter banks.
func (s *Store) Banks() int { return s.banks }

// Valid reports whether id names a register of this store.
func (s *Store) Valid(id ID) bool {
	return s.index(id) >= 0
}

func (s *Store) index(id ID) int {
	f := id.Field()
	if !f.valid() {
		return -1
	}
	bank, ok := id.Bank()
	if !ok {
		if !f.IsBoard() {
			return -1
		}
		return int(f - bankFieldCount)
	}
	if f.IsBoard() || bank >= s.banks {
		return -1
	}
	return boardFieldCount + bank*int(bankFieldCount) + int(f)
}

// Read returns the last committed value. Unknown ids read as the zero value of
// their field kind.
func (s *Store) Read(id ID) Value {
	kind := KindFloat
	if f := id.Field(); f.valid() {
		kind = f.Kind()
	}
	i := s.index(id)
	if i < 0 {
		return Value{kind: kind}
	}
	return Value{kind: kind, bits: s.cells[i].Load()}
}

// ReadFloat is a shorthand for Read(NewID(bank, f)).Float().
func (s *Store) ReadFloat(bank int, f Field) float32 {
	return math32.Float32frombits(s.cells[boardFieldCount+bank*int(bankFieldCount)+int(f)].Load())
}

// ReadBool is a shorthand for Read(NewID(bank, f)).Bool().
func (s *Store) ReadBool(bank int, f Field) bool {
	return s.cells[boardFieldCount+bank*int(bankFieldCount)+int(f)].Load() != 0
}

// IDs returns every id of the store, board section first.
func (s *Store) IDs() []ID {
	ids := make([]ID, 0, len(s.cells))
	for f := bankFieldCount; f < fieldCount; f++ {
		ids = append(ids, BoardID(f))
	}
	for bank := range s.banks {
		for f := Field(0); f < bankFieldCount; f++ {
			ids = append(ids, NewID(bank, f))
		}
	}
	return ids
}

// Snapshot appends every entry to dst and returns the extended slice.
func (s *Store) Snapshot(dst []Entry) []Entry {
	for _, id := range s.IDs() {
		dst = append(dst, Entry{ID: id, Value: s.Read(id)})
	}
	return dst
}

// Control returns the write port of the control context.
func (s *Store) Control() *ControlPort {
	return &ControlPort{port{store: s, owner: ControlCore}}
}

// Companion returns the write port of the companion context.
func (s *Store) Companion() *CompanionPort {
	return &CompanionPort{port{store: s, owner: CompanionCore}}
}

func (s *Store) storeBank(bank int, f Field, bits uint32) {
	s.cells[boardFieldCount+bank*int(bankFieldCount)+int(f)].Store(bits)
}

func (s *Store) storeBoard(f Field, bits uint32) {
	s.cells[int(f-bankFieldCount)].Store(bits)
}

type port struct {
	store *Store
	owner Owner
}

// Owner returns the context the port writes for.
func (p *port) Owner() Owner { return p.owner }

// Write stores v under id. Fields owned by the other context are refused.
func (p *port) Write(id ID, v Value) error {
	i := p.store.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	f := id.Field()
	if f.Owner() != p.owner {
		return fmt.Errorf("%w: %s is written by the %s context", ErrNotOwner, id, f.Owner())
	}
	if v.kind != f.Kind() {
		return fmt.Errorf("%w: %s", ErrKind, id)
	}
	if v.kind == KindFloat && !f.Accepts(v.Float()) {
		return fmt.Errorf("%w: %s = %s", ErrRange, id, v)
	}
	p.store.cells[i].Store(v.bits)
	return nil
}

func boolBits(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// ControlPort writes the fields owned by the control context.
// Its typed setters never fail and never allocate.
type ControlPort struct {
	port
}

// PublishFrequency stores the current output frequency of a bank.
func (p *ControlPort) PublishFrequency(bank int, hz float32) {
	p.store.storeBank(bank, Frequency, math32.Float32bits(hz))
}

// PublishModulationIndex stores the current modulation index of a bank.
func (p *ControlPort) PublishModulationIndex(bank int, m float32) {
	p.store.storeBank(bank, ModulationIndex, math32.Float32bits(m))
}

// PublishDirection stores the current direction of a bank.
func (p *ControlPort) PublishDirection(bank int, reverse bool) {
	p.store.storeBank(bank, Direction, boolBits(reverse))
}

// PublishState stores the activation result of a bank.
func (p *ControlPort) PublishState(bank int, on bool) {
	p.store.storeBank(bank, State, boolBits(on))
}

// PublishDCLink stores the measured DC link voltage.
func (p *ControlPort) PublishDCLink(volts float32) {
	p.store.storeBoard(DCLinkVoltage, math32.Float32bits(volts))
}

// PublishSamplingControl stores whether the ADC runs in control mode.
func (p *ControlPort) PublishSamplingControl(on bool) {
	p.store.storeBoard(SamplingControl, boolBits(on))
}

// CompanionPort writes the fields owned by the companion context.
type CompanionPort struct {
	port
}

// SetRequestedFrequency stores the target frequency of a bank.
func (p *CompanionPort) SetRequestedFrequency(bank int, hz float32) {
	p.store.storeBank(bank, RequestedFrequency, math32.Float32bits(hz))
}

// SetRequestedDirection stores the target direction of a bank.
func (p *CompanionPort) SetRequestedDirection(bank int, reverse bool) {
	p.store.storeBank(bank, RequestedDirection, boolBits(reverse))
}

// SetAcceleration stores the ramp limit of a bank.
func (p *CompanionPort) SetAcceleration(bank int, hzPerSecond float32) {
	p.store.storeBank(bank, Acceleration, math32.Float32bits(hzPerSecond))
}

// SetNominalFrequency stores the nominal frequency of a bank.
func (p *CompanionPort) SetNominalFrequency(bank int, hz float32) {
	p.store.storeBank(bank, NominalFrequency, math32.Float32bits(hz))
}

// SetNominalModulationIndex stores the nominal modulation index of a bank.
func (p *CompanionPort) SetNominalModulationIndex(bank int, m float32) {
	p.store.storeBank(bank, NominalModulationIndex, math32.Float32bits(m))
}
