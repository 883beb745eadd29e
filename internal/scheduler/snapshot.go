package scheduler

import (
	"bytes"
	"encoding/json"
	"errors"

	"kitchen-scheduler/internal/domain"
)

// DecodeSnapshot decodes a JSON order snapshot as produced by the order store
// or an API client. The top-level value must be an array and every element
// must carry the fields New requires.
func DecodeSnapshot(data []byte) ([]domain.Order, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, newError(CodeInvalidOrdersFormat, "orders must be an array", nil)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, newError(CodeInvalidOrdersFormat, "orders must be an array", err)
	}

	orders := make([]domain.Order, 0, len(raws))
	for i, raw := range raws {
		o, err := decodeOrder(raw)
		if err != nil {
			return nil, invalidOrderData(i, peekID(raw), err.Error())
		}
		orders = append(orders, o)
	}

	if err := validateOrders(orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func decodeOrder(raw json.RawMessage) (domain.Order, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Order{}, errors.New("order is not an object")
	}
	if items, ok := fields["items"]; ok {
		v := bytes.TrimSpace(items)
		if !bytes.Equal(v, []byte("null")) && (len(v) == 0 || v[0] != '[') {
			return domain.Order{}, errors.New("items must be a list")
		}
	}

	var o domain.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func peekID(raw json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &probe)
	return probe.ID
}
