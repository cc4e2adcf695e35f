package model

import (
	"errors"
	"testing"
)

func TestApply(t *testing.T) {
	inv := &Inventory{Quantity: 10}

	before, after, err := inv.Apply(-4)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if before != 10 || after != 6 || inv.Quantity != 6 {
		t.Fatalf("got before=%v after=%v quantity=%v", before, after, inv.Quantity)
	}

	// Draining to exactly zero is allowed.
	if _, after, err = inv.Apply(-6); err != nil || after != 0 {
		t.Fatalf("drain to zero: after=%v err=%v", after, err)
	}
}

func TestApplyRejectsNegativeBalance(t *testing.T) {
	inv := &Inventory{Quantity: 3}

	before, after, err := inv.Apply(-5)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if before != 3 || after != 3 || inv.Quantity != 3 {
		t.Fatalf("record must be untouched: before=%v after=%v quantity=%v", before, after, inv.Quantity)
	}
}
