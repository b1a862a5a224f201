package voice

import (
	"fmt"

	"go.uber.org/zap"
)

// ToolAdjustStock is the single function declared to the model: it takes an
// item name and a signed amount and mutates local inventory state.
const ToolAdjustStock = "adjustStock"

// AdjustStockDecl is the tool schema sent in the channel setup payload.
var AdjustStockDecl = ToolDecl{
	Name:        ToolAdjustStock,
	Description: "Adjust the on-hand quantity of a pantry item by a signed amount.",
	Params: []ToolParam{
		{Name: "itemName", Type: "string", Description: "Name of the pantry item."},
		{Name: "amount", Type: "number", Description: "Signed quantity delta."},
	},
}

// MutateFunc applies a stock adjustment and returns displayable result text.
// The dispatcher treats the result as opaque data for the model.
type MutateFunc func(itemName string, amount float64) string

// ToolDispatcher bridges model-issued function calls to the host's
// inventory-mutation callback.
type ToolDispatcher struct {
	mutate MutateFunc
	log    *zap.Logger
}

// NewToolDispatcher creates a dispatcher around the given mutation callback.
func NewToolDispatcher(mutate MutateFunc, log *zap.Logger) *ToolDispatcher {
	return &ToolDispatcher{mutate: mutate, log: log}
}

// Dispatch invokes the mutation callback synchronously for every request and
// returns exactly one response per request, correlated by id. Malformed
// arguments yield a failure-indicating result string rather than an error,
// so this path never terminates the session.
func (d *ToolDispatcher) Dispatch(calls []ToolCallRequest) []ToolCallResponse {
	resps := make([]ToolCallResponse, 0, len(calls))
	for _, call := range calls {
		result := d.invoke(call)
		d.log.Info("tool call dispatched",
			zap.String("id", call.ID),
			zap.String("name", call.Name),
			zap.String("result", result))
		resps = append(resps, ToolCallResponse{ID: call.ID, Name: call.Name, Result: result})
	}
	return resps
}

func (d *ToolDispatcher) invoke(call ToolCallRequest) string {
	if call.Name != ToolAdjustStock {
		return fmt.Sprintf("error: unknown function %q", call.Name)
	}
	name, ok := call.Args["itemName"].(string)
	if !ok || name == "" {
		return "error: itemName must be a non-empty string"
	}
	amount, ok := numericArg(call.Args["amount"])
	if !ok {
		return "error: amount must be a number"
	}
	return d.mutate(name, amount)
}

// numericArg accepts the numeric representations a JSON argument map can
// carry.
func numericArg(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
