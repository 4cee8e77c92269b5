package domain

import (
	"testing"
)

func TestNewPerson(t *testing.T) {
	t.Parallel()

	t.Run("Should create person with normalized email", func(t *testing.T) {
		t.Parallel()

		p, err := NewPerson("p1", "hs1", "  Ada  ", RoleStudent, "  Ada.Lovelace@Example.COM ")

		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if p.Name != "Ada" {
			t.Errorf("Expected trimmed name Ada, got %q", p.Name)
		}

		expectedEmail := "ada.lovelace@example.com"
		if p.Email != expectedEmail {
			t.Errorf("Expected email %s, got %s", expectedEmail, p.Email)
		}

		if p.CreatedAt.IsZero() {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("Should allow empty email", func(t *testing.T) {
		t.Parallel()

		p, err := NewPerson("p1", "hs1", "Ada", RoleStudent, "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if p.Email != "" {
			t.Errorf("Expected empty email, got %q", p.Email)
		}
	})

	t.Run("Should fail with invalid email", func(t *testing.T) {
		t.Parallel()

		_, err := NewPerson("p1", "hs1", "Ada", RoleStudent, "not-an-email")
		if err != ErrInvalidEmail {
			t.Errorf("Expected ErrInvalidEmail, got %v", err)
		}
	})

	t.Run("Should fail with empty name", func(t *testing.T) {
		t.Parallel()

		_, err := NewPerson("p1", "hs1", "   ", RoleParent, "")
		if err != ErrPersonNameEmpty {
			t.Errorf("Expected ErrPersonNameEmpty, got %v", err)
		}
	})

	t.Run("Should fail with unknown role", func(t *testing.T) {
		t.Parallel()

		_, err := NewPerson("p1", "hs1", "Ada", "teacher", "")
		if err != ErrInvalidPersonRole {
			t.Errorf("Expected ErrInvalidPersonRole, got %v", err)
		}
	})
}

func TestPerson_IsStudent(t *testing.T) {
	t.Parallel()

	student, _ := NewPerson("p1", "hs1", "Ada", RoleStudent, "")
	parent, _ := NewPerson("p2", "hs1", "Grace", RoleParent, "")

	if !student.IsStudent() {
		t.Error("Expected student role to report IsStudent")
	}
	if parent.IsStudent() {
		t.Error("Expected parent role to not report IsStudent")
	}
}
