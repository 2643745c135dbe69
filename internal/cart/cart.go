// Package cart owns the locally persisted shopping cart and its
// reconciliation against the remote cart record. Local mutations are
// optimistic and always succeed; remote sync is best-effort and never
// blocks editing.
package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/citymeds/citymeds-go/internal/gateway"
	"github.com/citymeds/citymeds-go/pkg/enums"
)

// Line is one cart entry, priced as snapshotted at add time. The cart
// never re-validates lines against the catalog after add.
type Line struct {
	ItemID               string          `json:"item_id"`
	Kind                 enums.ItemKind  `json:"kind"`
	Name                 string          `json:"name"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	UnitListPrice        decimal.Decimal `json:"unit_list_price"`
	Quantity             int             `json:"quantity"`
	PackLabel            string          `json:"pack_label,omitempty"`
	DiscountLabel        string          `json:"discount_label,omitempty"`
	PrescriptionRequired bool            `json:"prescription_required,omitempty"`
	VendorID             string          `json:"vendor_id,omitempty"`
	CatalogRef           string          `json:"catalog_ref,omitempty"`
	ImageURL             string          `json:"image_url,omitempty"`
}

// State is the cart as the UI sees it. CartID is the memoized remote
// identity, empty until the first successful sync.
type State struct {
	Items           []Line
	PrescriptionURL string
	CartID          string
	Status          enums.SyncStatus
}

// durableState is the whitelisted subset persisted across restarts.
// Status is session-only.
type durableState struct {
	Items           []Line `json:"items"`
	PrescriptionURL string `json:"prescription_url,omitempty"`
	CartID          string `json:"cart_id,omitempty"`
}

// lineMetadata is the display-only portion of a line, stored remotely as
// an opaque blob next to the priced core columns.
type lineMetadata struct {
	Kind                 enums.ItemKind `json:"kind"`
	Name                 string         `json:"name"`
	PackLabel            string         `json:"pack_label,omitempty"`
	DiscountLabel        string         `json:"discount_label,omitempty"`
	PrescriptionRequired bool           `json:"prescription_required,omitempty"`
	VendorID             string         `json:"vendor_id,omitempty"`
	CatalogRef           string         `json:"catalog_ref,omitempty"`
	ImageURL             string         `json:"image_url,omitempty"`
}

func encodeLine(cartID string, line Line) gateway.Row {
	meta, _ := json.Marshal(lineMetadata{
		Kind:                 line.Kind,
		Name:                 line.Name,
		PackLabel:            line.PackLabel,
		DiscountLabel:        line.DiscountLabel,
		PrescriptionRequired: line.PrescriptionRequired,
		VendorID:             line.VendorID,
		CatalogRef:           line.CatalogRef,
		ImageURL:             line.ImageURL,
	})
	return gateway.Row{
		"cart_id":         cartID,
		"item_id":         line.ItemID,
		"quantity":        line.Quantity,
		"unit_price":      line.UnitPrice,
		"unit_list_price": line.UnitListPrice,
		"metadata":        string(meta),
	}
}

func decodeLine(row gateway.Row) Line {
	line := Line{
		ItemID:        row.String("item_id"),
		Quantity:      row.Int("quantity"),
		UnitPrice:     row.Decimal("unit_price"),
		UnitListPrice: row.Decimal("unit_list_price"),
	}

	var meta lineMetadata
	if raw := row.String("metadata"); raw != "" {
		// A malformed blob degrades to a line without display fields; the
		// priced core is still usable.
		if err := json.Unmarshal([]byte(raw), &meta); err == nil {
			line.Kind = meta.Kind
			line.Name = meta.Name
			line.PackLabel = meta.PackLabel
			line.DiscountLabel = meta.DiscountLabel
			line.PrescriptionRequired = meta.PrescriptionRequired
			line.VendorID = meta.VendorID
			line.CatalogRef = meta.CatalogRef
			line.ImageURL = meta.ImageURL
		}
	}
	return line
}

func cloneLines(items []Line) []Line {
	copied := make([]Line, len(items))
	copy(copied, items)
	return copied
}
