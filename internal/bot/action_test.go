package bot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/teleshop/internal/wizard"
)

func TestParseAction(t *testing.T) {
	cases := []struct {
		data string
		want Action
	}{
		{"admin_add", Action{Kind: ActionAdminAdd}},
		{"admin_cancel", Action{Kind: ActionAdminCancel}},
		{"admin_list", Action{Kind: ActionAdminList}},
		{"admin_list_3", Action{Kind: ActionAdminList, Page: 3}},
		{"cat_Clothes", Action{Kind: ActionCategory, CategoryKey: "Clothes"}},
		{"view_12", Action{Kind: ActionView, ProductID: 12}},
		{"edit_12", Action{Kind: ActionEdit, ProductID: 12}},
		{"editfield_price_12", Action{Kind: ActionEditField, Field: wizard.FieldPrice, ProductID: 12}},
		{"editfield_photo_7", Action{Kind: ActionEditField, Field: wizard.FieldPhoto, ProductID: 7}},
		{"del_12", Action{Kind: ActionDelete, ProductID: 12}},
		{"confirm_del_12", Action{Kind: ActionConfirmDelete, ProductID: 12}},
		{"toggle_preorder_5", Action{Kind: ActionTogglePreorder, ProductID: 5}},
		{"ask_discount_yes", Action{Kind: ActionDiscountChoice, Yes: true}},
		{"ask_discount_no", Action{Kind: ActionDiscountChoice}},
		{"ask_preorder_yes", Action{Kind: ActionPreorderChoice, Yes: true}},
		{"ask_preorder_no", Action{Kind: ActionPreorderChoice}},
		{"confirm_order_99", Action{Kind: ActionConfirmOrder, OrderID: 99}},
		// Telebot frames callback data with a leading \f.
		{"\fadmin_add", Action{Kind: ActionAdminAdd}},
	}
	for _, tc := range cases {
		t.Run(tc.data, func(t *testing.T) {
			got, ok := ParseAction(tc.data)
			require.True(t, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseActionRejectsGarbage(t *testing.T) {
	for _, data := range []string{
		"",
		"nonsense",
		"view_abc",
		"editfield_color_12",
		"editfield_price_",
		"admin_list_-1",
		"confirm_order_",
	} {
		_, ok := ParseAction(data)
		require.False(t, ok, "data=%q", data)
	}
}
