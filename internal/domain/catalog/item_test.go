package catalog

import "testing"

func TestNewItem(t *testing.T) {
	it, err := NewItem(19995, "Avatar", "19995")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.ID() != 19995 || it.Title() != "Avatar" || it.ExternalID() != "19995" {
		t.Errorf("unexpected item: %+v", it)
	}
}

func TestNewItem_Invalid(t *testing.T) {
	if _, err := NewItem(1, " ", "1"); err == nil {
		t.Error("expected error for blank title")
	}
	if _, err := NewItem(1, "Avatar", ""); err == nil {
		t.Error("expected error for empty external id")
	}
}
