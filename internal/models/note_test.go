package models

import "testing"

func TestNew(t *testing.T) {
	n := New("  Receipt ", "total: 12.50", nil)

	if n.ID == "" {
		t.Error("ID is empty")
	}
	if n.Title != "Receipt" {
		t.Errorf("Title = %q, want %q", n.Title, "Receipt")
	}
	if n.Tags == nil {
		t.Error("Tags is nil, want empty slice")
	}
	if n.CreatedAt == 0 || n.CreatedAt != n.UpdatedAt {
		t.Errorf("timestamps = %d/%d, want equal and nonzero", n.CreatedAt, n.UpdatedAt)
	}

	other := New("Receipt", "", nil)
	if other.ID == n.ID {
		t.Error("two notes share an ID")
	}
}

func TestNormalizeEmptyTitle(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		n := Note{Title: title}
		n.Normalize()
		if n.Title != DefaultTitle {
			t.Errorf("Normalize(%q) title = %q, want %q", title, n.Title, DefaultTitle)
		}
	}
}

func TestNormalizeKeepsTitle(t *testing.T) {
	n := Note{Title: " Groceries "}
	n.Normalize()
	if n.Title != "Groceries" {
		t.Errorf("Title = %q, want %q", n.Title, "Groceries")
	}
}

func TestAddTag(t *testing.T) {
	var n Note

	if !n.AddTag("Work") {
		t.Error("first AddTag returned false")
	}
	if n.AddTag("work") {
		t.Error("case-insensitive duplicate was added")
	}
	if n.AddTag("  WORK  ") {
		t.Error("trimmed duplicate was added")
	}
	if n.AddTag("") || n.AddTag("   ") {
		t.Error("blank tag was added")
	}
	if !n.AddTag("home") {
		t.Error("distinct tag rejected")
	}

	if len(n.Tags) != 2 || n.Tags[0] != "Work" || n.Tags[1] != "home" {
		t.Errorf("Tags = %v, want [Work home]", n.Tags)
	}
}
