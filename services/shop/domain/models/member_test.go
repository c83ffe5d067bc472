package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain"
)

func TestNewMember(t *testing.T) {
	t.Run("trims name and keeps address", func(t *testing.T) {
		addr := NewAddress(" Seoul ", "1", "123")
		m, err := NewMember("  kim ", addr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.ID == uuid.Nil {
			t.Fatal("expected generated ID")
		}
		if m.Name != "kim" {
			t.Fatalf("expected trimmed name, got %q", m.Name)
		}
		if m.Address.City != "Seoul" {
			t.Fatalf("expected trimmed city, got %q", m.Address.City)
		}
		if len(m.Orders()) != 0 {
			t.Fatal("new member must have no orders")
		}
	})

	t.Run("blank name rejected", func(t *testing.T) {
		if _, err := NewMember(" ", Address{}); !errors.Is(err, domain.ErrInvalidMember) {
			t.Fatalf("expected ErrInvalidMember, got %v", err)
		}
	})
}

func TestMember_Rename(t *testing.T) {
	m := newMember(t)
	if err := m.Rename("new-name"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if m.Name != "new-name" {
		t.Fatalf("expected new-name, got %q", m.Name)
	}
	if err := m.Rename(""); !errors.Is(err, domain.ErrInvalidMember) {
		t.Fatalf("expected ErrInvalidMember, got %v", err)
	}
	if m.Name != "new-name" {
		t.Fatal("failed rename must keep the old name")
	}
}

func TestMember_OrdersReturnsCopy(t *testing.T) {
	m := newMember(t)
	if _, err := CreateOrder(m, NewDelivery(m.Address), newOrderItem(t, newBook(t, 1, 1), 1)); err != nil {
		t.Fatal(err)
	}
	got := m.Orders()
	got[0] = nil
	if m.Orders()[0] == nil {
		t.Fatal("Orders must return a copy")
	}
}

func TestNewItemName(t *testing.T) {
	if _, err := NewItemName(""); !errors.Is(err, domain.ErrInvalidItemName) {
		t.Fatalf("expected ErrInvalidItemName, got %v", err)
	}
	if _, err := NewItemName(strings.Repeat("x", 256)); !errors.Is(err, domain.ErrInvalidItemName) {
		t.Fatalf("expected ErrInvalidItemName, got %v", err)
	}
	n, err := NewItemName(strings.Repeat("x", 255))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.String()) != 255 {
		t.Fatalf("expected 255 chars, got %d", len(n.String()))
	}
}
