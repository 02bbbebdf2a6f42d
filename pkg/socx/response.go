package socx

import "encoding/json"

// PromoPayload is one promo entry from a supplier task response. The two
// task kinds return different field sets (isimple hot_promo vs tri
// special_offer), so the struct carries both and the caller picks what it
// needs. Raw preserves the original element for storage.
type PromoPayload struct {
	// hot_promo fields
	Name       string    `json:"name"`
	DnmCode    string    `json:"dnmcode"`
	Amount     FlexInt   `json:"amount"`
	Type       string    `json:"type"`
	TypeTitle  string    `json:"typetitle"`
	Commission FlexInt   `json:"commision"` // platform spells it this way
	Gb         FlexFloat `json:"gb"`
	ProductGb  FlexFloat `json:"product_gb"`
	Days       FlexInt   `json:"days"`
	ProductDay FlexInt   `json:"product_days"`

	// special_offer fields
	OfferID            json.Number `json:"offerId"`
	OfferShortDesc     string      `json:"offerShortDesc"`
	RecommendationName string      `json:"recommendationName"`
	ProductPrice       FlexInt     `json:"productPrice"`
	NetPrice           FlexInt     `json:"netPrice"`
	RegistrationKey    string      `json:"registrationKey"`
	Validity           FlexInt     `json:"validity"`
	ProductType        string      `json:"productType"`

	Raw json.RawMessage `json:"-"`
}

// Code returns the promo code for the payload, whichever task kind produced
// it. Empty when the payload carries no usable identifier.
func (p *PromoPayload) Code() string {
	if p.DnmCode != "" {
		return p.DnmCode
	}
	if p.RegistrationKey != "" {
		return p.RegistrationKey
	}
	return p.OfferID.String()
}

// Title returns the human-readable promo name.
func (p *PromoPayload) Title() string {
	if p.Name != "" {
		return p.Name
	}
	if p.OfferShortDesc != "" {
		return p.OfferShortDesc
	}
	return p.RecommendationName
}

// Price returns the gross price of the promo.
func (p *PromoPayload) Price() int {
	if p.Amount != 0 {
		return p.Amount.Int()
	}
	return p.ProductPrice.Int()
}

// CatalogProduct is a product row on the platform.
type CatalogProduct struct {
	ID    FlexInt `json:"id"`
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Price FlexInt `json:"price"`
}

// Association is a products_has_suppliers_modules row: the link between a
// product, a promo code, a module and a resale (supplier) product.
type Association struct {
	ID                  FlexInt `json:"id"`
	ProductsID          FlexInt `json:"products_id"`
	Code                string  `json:"code"`
	SuppliersProductsID FlexInt `json:"suppliers_products_id"`
	SuppliersModulesID  FlexInt `json:"suppliers_modules_id"`
	Priority            FlexInt `json:"priority"`
	Status              FlexInt `json:"status"`
	PendingLimit        FlexInt `json:"pending_limit"`
	Price               FlexInt `json:"price"`
}

// Module is a distribution channel on the platform through which a resale
// product can be sold.
type Module struct {
	ID     FlexInt `json:"id"`
	Name   string  `json:"name"`
	Status FlexInt `json:"status"`
}

// Active reports whether the module can receive new associations.
func (m *Module) Active() bool { return m.Status.Int() == 1 }

// ResaleProduct is a suppliers_products row: one per distinct promo code per
// seller, created lazily and reused across modules.
type ResaleProduct struct {
	ID          FlexInt `json:"id"`
	SuppliersID FlexInt `json:"suppliers_id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Price       FlexInt `json:"price"`
}
