package entities

import "testing"

func TestNewItemNormalizesName(t *testing.T) {
	item := NewItem("  Brown Eggs ", 12, "piece")
	if item.Name != "brown eggs" {
		t.Errorf("Name = %q, want %q", item.Name, "brown eggs")
	}
	if item.ID.IsZero() {
		t.Error("ID not assigned")
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{"valid", Item{Name: "eggs", Quantity: 3}, false},
		{"zero quantity", Item{Name: "eggs", Quantity: 0}, false},
		{"empty name", Item{Name: "   ", Quantity: 1}, true},
		{"negative quantity", Item{Name: "eggs", Quantity: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestItemAdjustClampsAtZero(t *testing.T) {
	item := NewItem("milk", 2, "l")

	item.Adjust(-1)
	if item.Quantity != 1 {
		t.Errorf("Quantity = %v, want 1", item.Quantity)
	}

	item.Adjust(-5)
	if item.Quantity != 0 {
		t.Errorf("Quantity = %v, want 0 (clamped)", item.Quantity)
	}

	item.Adjust(3.5)
	if item.Quantity != 3.5 {
		t.Errorf("Quantity = %v, want 3.5", item.Quantity)
	}
}
