package socx

// Task identifies a supplier task on the platform.
type Task struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Task string `json:"task"`
}

// Supplier tasks used by the promo-check engine.
var (
	TaskIsimpleHotPromo = Task{ID: 40, Name: "isimple", Task: "hot_promo"}
	TaskTriSpecialOffer = Task{ID: 57, Name: "rita", Task: "special_offer"}
)

// taskRequest is the body for POST /api/v1/suppliers_modules/task.
type taskRequest struct {
	ID      int         `json:"id"`
	Name    string      `json:"name"`
	Task    string      `json:"task"`
	Payload taskPayload `json:"payload"`
}

type taskPayload struct {
	Msisdn string `json:"msisdn"`
}

// CreateResaleProductRequest is the body for POST /api/v1/suppliers_products.
type CreateResaleProductRequest struct {
	SuppliersID int    `json:"suppliers_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Price       int    `json:"price"`
	Status      int    `json:"status"`
}

// CreateAssociationRequest is the body for
// POST /api/v1/products_has_suppliers_modules.
type CreateAssociationRequest struct {
	ProductsID          int    `json:"products_id"`
	ProductCode         string `json:"product_code"`
	Code                string `json:"code"`
	SuppliersProductsID int    `json:"suppliers_products_id"`
	SuppliersModulesID  int    `json:"suppliers_modules_id"`
	Priority            int    `json:"priority"`
	Status              int    `json:"status"`
	PendingLimit        int    `json:"pending_limit"`
}

type updatePriceRequest struct {
	Price int `json:"price"`
}

type updatePriorityRequest struct {
	Priority int `json:"priority"`
}
