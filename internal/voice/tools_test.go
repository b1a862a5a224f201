package voice

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

type mutateRecorder struct {
	calls []struct {
		name   string
		amount float64
	}
	result string
}

func (m *mutateRecorder) mutate(name string, amount float64) string {
	m.calls = append(m.calls, struct {
		name   string
		amount float64
	}{name, amount})
	return m.result
}

func TestDispatchAdjustStock(t *testing.T) {
	rec := &mutateRecorder{result: "eggs: 9 on hand"}
	d := NewToolDispatcher(rec.mutate, zap.NewNop())

	resps := d.Dispatch([]ToolCallRequest{{
		ID:   "1",
		Name: ToolAdjustStock,
		Args: map[string]any{"itemName": "eggs", "amount": -3.0},
	}})

	if len(resps) != 1 {
		t.Fatalf("expected 1 response, got %d", len(resps))
	}
	if resps[0].ID != "1" || resps[0].Name != ToolAdjustStock {
		t.Errorf("response correlation wrong: %+v", resps[0])
	}
	if resps[0].Result != "eggs: 9 on hand" {
		t.Errorf("Result = %q, want mutation result", resps[0].Result)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("mutate invoked %d times, want 1", len(rec.calls))
	}
	if rec.calls[0].name != "eggs" || rec.calls[0].amount != -3.0 {
		t.Errorf("mutate(%q, %v), want (eggs, -3)", rec.calls[0].name, rec.calls[0].amount)
	}
}

func TestDispatchOneResponsePerRequest(t *testing.T) {
	rec := &mutateRecorder{result: "ok"}
	d := NewToolDispatcher(rec.mutate, zap.NewNop())

	resps := d.Dispatch([]ToolCallRequest{
		{ID: "a", Name: ToolAdjustStock, Args: map[string]any{"itemName": "milk", "amount": 1.0}},
		{ID: "b", Name: ToolAdjustStock, Args: map[string]any{"itemName": "flour", "amount": 2.0}},
	})
	if len(resps) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(resps))
	}
	if resps[0].ID != "a" || resps[1].ID != "b" {
		t.Errorf("response ids = %q, %q; want a, b", resps[0].ID, resps[1].ID)
	}
}

func TestDispatchMalformedArgs(t *testing.T) {
	tests := []struct {
		name string
		call ToolCallRequest
	}{
		{"unknown function", ToolCallRequest{ID: "1", Name: "orderGroceries", Args: map[string]any{}}},
		{"missing item name", ToolCallRequest{ID: "2", Name: ToolAdjustStock, Args: map[string]any{"amount": 1.0}}},
		{"empty item name", ToolCallRequest{ID: "3", Name: ToolAdjustStock, Args: map[string]any{"itemName": "", "amount": 1.0}}},
		{"non-numeric amount", ToolCallRequest{ID: "4", Name: ToolAdjustStock, Args: map[string]any{"itemName": "eggs", "amount": "three"}}},
		{"missing amount", ToolCallRequest{ID: "5", Name: ToolAdjustStock, Args: map[string]any{"itemName": "eggs"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mutateRecorder{}
			d := NewToolDispatcher(rec.mutate, zap.NewNop())
			resps := d.Dispatch([]ToolCallRequest{tt.call})
			if len(resps) != 1 {
				t.Fatalf("expected 1 response, got %d", len(resps))
			}
			if !strings.HasPrefix(resps[0].Result, "error:") {
				t.Errorf("Result = %q, want error text", resps[0].Result)
			}
			if len(rec.calls) != 0 {
				t.Errorf("mutate invoked %d times, want 0", len(rec.calls))
			}
		})
	}
}

func TestDispatchIntegerAmount(t *testing.T) {
	rec := &mutateRecorder{result: "ok"}
	d := NewToolDispatcher(rec.mutate, zap.NewNop())
	d.Dispatch([]ToolCallRequest{{
		ID:   "1",
		Name: ToolAdjustStock,
		Args: map[string]any{"itemName": "rice", "amount": int64(4)},
	}})
	if len(rec.calls) != 1 || rec.calls[0].amount != 4 {
		t.Fatalf("integer amount not accepted: %+v", rec.calls)
	}
}
