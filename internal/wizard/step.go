// Package wizard implements the admin's multi-step product dialog.
package wizard

// StepKind identifies a position in the add or edit flow.
type StepKind string

const (
	StepAwaitCategory StepKind = "await_category"
	StepAwaitName     StepKind = "await_name"
	StepAwaitDesc     StepKind = "await_description"
	StepAwaitPrice    StepKind = "await_price"
	StepAwaitQty      StepKind = "await_quantity"
	StepAwaitPhoto    StepKind = "await_photo"
	StepAskDiscount   StepKind = "ask_discount"
	StepAwaitOldPrice StepKind = "await_old_price"
	StepAskPreorder   StepKind = "ask_preorder"
	// StepEditField is parameterized by ProductID and Field.
	StepEditField StepKind = "edit_field"
)

// Field names an editable product attribute.
type Field string

const (
	FieldName     Field = "name"
	FieldPrice    Field = "price"
	FieldPhoto    Field = "photo"
	FieldQty      Field = "qty"
	FieldDiscount Field = "discount"
)

// Step is a tagged wizard position. ProductID and Field are set only for
// StepEditField.
type Step struct {
	Kind      StepKind `json:"kind"`
	ProductID int64    `json:"product_id,omitempty"`
	Field     Field    `json:"field,omitempty"`
}

// EditField builds the single-step edit position for one product attribute.
func EditField(productID int64, field Field) Step {
	return Step{Kind: StepEditField, ProductID: productID, Field: field}
}

// Draft is the partial product accumulated across add-flow steps.
type Draft struct {
	Category    string   `json:"category,omitempty"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price,omitempty"`
	Quantity    int      `json:"quantity,omitempty"`
	Images      []string `json:"images,omitempty"`
	OldPrice    *float64 `json:"old_price,omitempty"`
}

// State is one administrator's in-progress wizard.
type State struct {
	Step  Step  `json:"step"`
	Draft Draft `json:"draft"`
}
