package cart

import "github.com/shopspring/decimal"

// ItemType discriminates what kind of offering a cart entry points at.
type ItemType string

const (
	ItemTypePackage ItemType = "package"
	ItemTypeService ItemType = "service"
)

// Item is one selected service offering. The uniqueness key is (ID, Type);
// adding an item whose key already exists replaces the entry, which is how
// "change selected package" works on a vendor page.
type Item struct {
	ID          string          `json:"id"`
	Type        ItemType        `json:"type"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	VendorID    string          `json:"vendorId"`
	VendorName  string          `json:"vendorName"`
	Description string          `json:"description,omitempty"`
}

func (i Item) sameKey(id string, itemType ItemType) bool {
	return i.ID == id && i.Type == itemType
}
