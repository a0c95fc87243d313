package product

// Product is a catalog record. Stored documents may omit optional fields;
// the firestore tags tolerate that on read. Timestamps are RFC 3339 strings
// with createdAt immutable after creation and updatedAt >= createdAt.
type Product struct {
	ID          string  `json:"id" firestore:"-"`
	Name        string  `json:"name" firestore:"name"`
	Description string  `json:"description" firestore:"description"`
	Price       float64 `json:"price" firestore:"price"`
	Category    string  `json:"category" firestore:"category"`
	Stock       int     `json:"stock" firestore:"stock"`
	ImageURL    string  `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	Active      bool    `json:"active" firestore:"active"`
	CreatedAt   string  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   string  `json:"updatedAt" firestore:"updatedAt"`
}

// CreateProductRequest is the validated body for product creation.
// Stock defaults to 0 and active to true when absent.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"required,min=10,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Category    string  `json:"category" validate:"required,min=3,max=50"`
	Stock       *int    `json:"stock" validate:"omitempty,min=0"`
	ImageURL    string  `json:"imageUrl" validate:"omitempty,url"`
	Active      *bool   `json:"active"`
}

// UpdateProductRequest is a partial update: every field optional, but at
// least one must be present.
type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=3,max=100"`
	Description *string  `json:"description" validate:"omitempty,min=10,max=500"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Category    *string  `json:"category" validate:"omitempty,min=3,max=50"`
	Stock       *int     `json:"stock" validate:"omitempty,min=0"`
	ImageURL    *string  `json:"imageUrl" validate:"omitempty,url"`
	Active      *bool    `json:"active"`
}

// IsEmpty reports whether the update carries no fields at all.
func (r UpdateProductRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil &&
		r.Category == nil && r.Stock == nil && r.ImageURL == nil && r.Active == nil
}

// Pagination describes the window of a listing response.
type Pagination struct {
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
}

// ListResult is the assembled outcome of a listing: the page of products
// plus pagination metadata and an optional informational message.
type ListResult struct {
	Items      []Product
	Pagination Pagination
	Message    string
}

// ListResponse is the wire shape of GET /products.
type ListResponse struct {
	Success    bool       `json:"success"`
	Data       []Product  `json:"data"`
	Message    string     `json:"message,omitempty"`
	Pagination Pagination `json:"pagination"`
}

// DeleteResult confirms which record a delete removed.
type DeleteResult struct {
	ID string `json:"id"`
}
