package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/teleshop/core/telegram/keyboard"
	"github.com/m3rciful/teleshop/internal/shop"
	"github.com/m3rciful/teleshop/internal/wizard"
)

const (
	panelText    = "🔧 *Панель управления*"
	dbErrorText  = "❌ Ошибка базы данных. Попробуйте ещё раз."
	emptyList    = "Список товаров пуст."
	deletedText  = "🗑 Удалено."
	confirmedTag = "✅ *ЗАКАЗ ПОДТВЕРЖДЕН (Остатки обновлены)*"
)

func greeting(firstName string) string {
	return fmt.Sprintf("Привет, %s! Твой профиль обновлен. \n\n🛍️ Чтобы открыть магазин, нажми на кнопку *«Магазин»* слева от поля ввода текста.", firstName)
}

func panelKeyboard() *tele.ReplyMarkup {
	return keyboard.Inline(
		keyboard.Row(keyboard.Btn("➕ Добавить товар", "admin_add")),
		keyboard.Row(keyboard.Btn("📦 Список товаров", "admin_list")),
	)
}

func productCaption(p *shop.Product) string {
	preorder := ""
	if p.IsPreorder {
		preorder = "| 🟣 ПРЕДЗАКАЗ"
	}
	desc := p.Description
	if desc == "" {
		desc = "Нет описания"
	}
	discount := ""
	if p.OldPrice != nil {
		discount = " (Скидка)"
	}
	return fmt.Sprintf("📂 *%s* %s\n📦 *%s*\n💬 %s\n💰 Цена: %s ₽%s\n🔢 В наличии: %d шт.",
		p.Category, preorder, p.Name, desc, formatAmount(p.Price), discount, p.Quantity)
}

func viewKeyboard(id int64) *tele.ReplyMarkup {
	return keyboard.Inline(
		keyboard.Row(
			keyboard.Btn("📝 Изменить", fmt.Sprintf("edit_%d", id)),
			keyboard.Btn("🗑 Удалить", fmt.Sprintf("del_%d", id)),
		),
		keyboard.Row(keyboard.Btn("⬅️ К списку", "admin_list")),
	)
}

func editMenuText(name string, toggled bool) string {
	if toggled {
		return fmt.Sprintf("⚙️ *Редактирование:* %s\nСтатус предзаказа обновлен.\nВыберите поле для изменения:", name)
	}
	return fmt.Sprintf("⚙️ *Редактирование:* %s\nВыберите поле для изменения:", name)
}

func editMenuKeyboard(p *shop.Product) *tele.ReplyMarkup {
	toggleLabel := "🟣 Сделать предзаказом"
	if p.IsPreorder {
		toggleLabel = "🟣 Убрать предзаказ"
	}
	return keyboard.Inline(
		keyboard.Row(
			keyboard.Btn("📝 Название", fmt.Sprintf("editfield_name_%d", p.ID)),
			keyboard.Btn("💰 Цена", fmt.Sprintf("editfield_price_%d", p.ID)),
		),
		keyboard.Row(
			keyboard.Btn("📸 Фото", fmt.Sprintf("editfield_photo_%d", p.ID)),
			keyboard.Btn("🔢 Кол-во", fmt.Sprintf("editfield_qty_%d", p.ID)),
		),
		keyboard.Row(keyboard.Btn("🏷 Скидка", fmt.Sprintf("editfield_discount_%d", p.ID))),
		keyboard.Row(keyboard.Btn(toggleLabel, fmt.Sprintf("toggle_preorder_%d", p.ID))),
		keyboard.Row(keyboard.Btn("⬅️ Назад", fmt.Sprintf("view_%d", p.ID))),
	)
}

func deleteConfirmKeyboard(id int64) *tele.ReplyMarkup {
	return keyboard.Inline(
		keyboard.Row(keyboard.Btn("✅ Да, удалить", fmt.Sprintf("confirm_del_%d", id))),
		keyboard.Row(keyboard.Btn("❌ Нет, отмена", fmt.Sprintf("view_%d", id))),
	)
}

func deletedKeyboard() *tele.ReplyMarkup {
	return keyboard.Inline(keyboard.Row(keyboard.Btn("📦 К списку", "admin_list")))
}

// Markup converts a wizard keyboard into telebot markup. Returns nil when
// the reply carries no buttons.
func Markup(r wizard.Reply) *tele.ReplyMarkup {
	if len(r.Buttons) == 0 {
		return nil
	}
	rows := make([][]keyboard.InlineBtn, len(r.Buttons))
	for i, row := range r.Buttons {
		btns := make([]keyboard.InlineBtn, len(row))
		for j, b := range row {
			btns[j] = keyboard.Btn(b.Text, b.Action)
		}
		rows[i] = btns
	}
	return keyboard.Inline(rows...)
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
