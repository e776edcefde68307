package domain

// RawCart is cart data exactly as it arrives from external storage or a
// client payload: product ID -> size label -> quantity, with no guarantees
// about value types or label hygiene. Nothing in the system consumes a
// RawCart directly; it must pass through the cart reconciler first.
type RawCart map[string]map[string]any

// CartData is a reconciled cart: every quantity is a positive integer and
// every size label is either a real non-numeric label or "Default".
type CartData map[string]map[string]int

// Raw converts reconciled cart data back into the wire shape, e.g. for
// storage round-trips through the same sanitation gate.
func (c CartData) Raw() RawCart {
	raw := make(RawCart, len(c))
	for productID, sizes := range c {
		entry := make(map[string]any, len(sizes))
		for size, qty := range sizes {
			entry[size] = qty
		}
		raw[productID] = entry
	}
	return raw
}
