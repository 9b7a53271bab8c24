// Package bot binds the admin wizard and shop services to Telegram.
package bot

import (
	"strconv"
	"strings"

	"github.com/m3rciful/teleshop/internal/wizard"
)

// ActionKind enumerates the callback-button vocabulary.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionAdminAdd
	ActionAdminList
	ActionAdminCancel
	ActionCategory
	ActionView
	ActionEdit
	ActionEditField
	ActionDelete
	ActionConfirmDelete
	ActionTogglePreorder
	ActionDiscountChoice
	ActionPreorderChoice
	ActionConfirmOrder
)

// Action is a parsed callback payload. Only the fields relevant to its
// Kind are populated.
type Action struct {
	Kind        ActionKind
	Page        int
	ProductID   int64
	OrderID     int64
	CategoryKey string
	Field       wizard.Field
	Yes         bool
}

var editFields = map[string]wizard.Field{
	"name":     wizard.FieldName,
	"price":    wizard.FieldPrice,
	"photo":    wizard.FieldPhoto,
	"qty":      wizard.FieldQty,
	"discount": wizard.FieldDiscount,
}

// ParseAction decodes a raw callback payload into a tagged Action. It is
// the single place where the opaque button strings are interpreted;
// handlers switch over Action.Kind instead of re-matching strings.
func ParseAction(data string) (Action, bool) {
	// Telebot prefixes unique-style callbacks with "\f"; raw payloads
	// from external senders arrive without it.
	data = strings.TrimSpace(strings.TrimPrefix(data, "\f"))

	switch data {
	case "admin_add":
		return Action{Kind: ActionAdminAdd}, true
	case "admin_cancel":
		return Action{Kind: ActionAdminCancel}, true
	case "admin_list":
		return Action{Kind: ActionAdminList}, true
	case "ask_discount_yes":
		return Action{Kind: ActionDiscountChoice, Yes: true}, true
	case "ask_discount_no":
		return Action{Kind: ActionDiscountChoice}, true
	case "ask_preorder_yes":
		return Action{Kind: ActionPreorderChoice, Yes: true}, true
	case "ask_preorder_no":
		return Action{Kind: ActionPreorderChoice}, true
	}

	if rest, ok := strings.CutPrefix(data, "admin_list_"); ok {
		page, err := strconv.Atoi(rest)
		if err != nil || page < 0 {
			return Action{}, false
		}
		return Action{Kind: ActionAdminList, Page: page}, true
	}
	if rest, ok := strings.CutPrefix(data, "cat_"); ok {
		if rest == "" {
			return Action{}, false
		}
		return Action{Kind: ActionCategory, CategoryKey: rest}, true
	}
	if rest, ok := strings.CutPrefix(data, "editfield_"); ok {
		field, idRaw, ok := strings.Cut(rest, "_")
		if !ok {
			return Action{}, false
		}
		kind, known := editFields[field]
		if !known {
			return Action{}, false
		}
		id, err := strconv.ParseInt(idRaw, 10, 64)
		if err != nil {
			return Action{}, false
		}
		return Action{Kind: ActionEditField, Field: kind, ProductID: id}, true
	}

	idSuffix := func(prefix string) (int64, bool) {
		rest, ok := strings.CutPrefix(data, prefix)
		if !ok {
			return 0, false
		}
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	}

	if id, ok := idSuffix("view_"); ok {
		return Action{Kind: ActionView, ProductID: id}, true
	}
	if id, ok := idSuffix("edit_"); ok {
		return Action{Kind: ActionEdit, ProductID: id}, true
	}
	if id, ok := idSuffix("confirm_del_"); ok {
		return Action{Kind: ActionConfirmDelete, ProductID: id}, true
	}
	if id, ok := idSuffix("del_"); ok {
		return Action{Kind: ActionDelete, ProductID: id}, true
	}
	if id, ok := idSuffix("toggle_preorder_"); ok {
		return Action{Kind: ActionTogglePreorder, ProductID: id}, true
	}
	if id, ok := idSuffix("confirm_order_"); ok {
		return Action{Kind: ActionConfirmOrder, OrderID: id}, true
	}

	return Action{}, false
}
