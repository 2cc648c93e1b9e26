package warranty

// Slot is one of the fixed image roles accepted by the analysis endpoint.
type Slot int

const (
	SlotSerialNumber Slot = iota
	SlotWarrantyCard
	SlotReceipt
	SlotProductPhoto
)

// slotOrder fixes the processing order for validation, compression, and
// part layout in the multipart body.
var slotOrder = []Slot{SlotSerialNumber, SlotWarrantyCard, SlotReceipt, SlotProductPhoto}

func (s Slot) String() string {
	switch s {
	case SlotSerialNumber:
		return "serial-number"
	case SlotWarrantyCard:
		return "warranty-card"
	case SlotReceipt:
		return "receipt"
	case SlotProductPhoto:
		return "product-photo"
	}
	return "unknown"
}

// PartName returns the multipart field name the backend expects for the slot.
func (s Slot) PartName() string {
	switch s {
	case SlotSerialNumber:
		return "serialNumberImage"
	case SlotWarrantyCard:
		return "warrantyCardImage"
	case SlotReceipt:
		return "receiptImage"
	case SlotProductPhoto:
		return "productImage"
	}
	return ""
}

// Slots holds the local file path for each image role. Empty means the slot
// is not populated; at least one must be set before Analyze is called.
type Slots struct {
	SerialNumber string
	WarrantyCard string
	Receipt      string
	ProductPhoto string
}

func (s Slots) path(slot Slot) string {
	switch slot {
	case SlotSerialNumber:
		return s.SerialNumber
	case SlotWarrantyCard:
		return s.WarrantyCard
	case SlotReceipt:
		return s.Receipt
	case SlotProductPhoto:
		return s.ProductPhoto
	}
	return ""
}

// Populated returns the populated slots in processing order.
func (s Slots) Populated() []Slot {
	var out []Slot
	for _, slot := range slotOrder {
		if s.path(slot) != "" {
			out = append(out, slot)
		}
	}
	return out
}
