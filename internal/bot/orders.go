package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/teleshop/core/logger"
	"github.com/m3rciful/teleshop/core/telegram/keyboard"
	"github.com/m3rciful/teleshop/internal/shop"
)

// OrderRequest is a storefront checkout submitted through the HTTP API.
type OrderRequest struct {
	UserID    int64
	FirstName string
	Items     shop.OrderItems
	Total     float64
}

// PlaceOrder persists a storefront order and notifies the administrator
// with a confirmation button. The buyer profile is refreshed from the
// Telegram API when the stored record has no username.
func (a *App) PlaceOrder(ctx context.Context, req OrderRequest) (int64, error) {
	user, err := a.users.ByID(ctx, req.UserID)
	if err != nil && !errors.Is(err, shop.ErrNotFound) {
		logger.Warn(ctx, component, "order.user_lookup_failed",
			slog.Int64("user_id", req.UserID),
			slog.String("err", err.Error()),
		)
	}
	if user == nil || user.Username == nil {
		user = a.refreshUser(ctx, req, user)
	}

	name := req.FirstName
	if name == "" {
		name = "Покупатель"
	}
	if user != nil {
		if user.Username != nil {
			name = *user.Username
		} else if user.FirstName != "" {
			name = user.FirstName
		}
	}

	orderID, err := a.orders.Create(ctx, req.UserID, name, req.Items, req.Total)
	if err != nil {
		return 0, err
	}
	logger.Info(ctx, component, "order.created",
		slog.Int64("order_id", orderID),
		slog.Int64("user_id", req.UserID),
	)

	a.notifyNewOrder(ctx, orderID, req, user)
	return orderID, nil
}

// refreshUser pulls the buyer's profile from Telegram and upserts it so
// later orders do not have to ask again.
func (a *App) refreshUser(ctx context.Context, req OrderRequest, current *shop.User) *shop.User {
	chat, err := a.bot.ChatByID(req.UserID)
	if err != nil {
		logger.Debug(ctx, component, "order.profile_fetch_failed",
			slog.Int64("user_id", req.UserID),
			slog.String("err", err.Error()),
		)
		return current
	}

	u := shop.User{ID: req.UserID, FirstName: chat.FirstName}
	if u.FirstName == "" {
		u.FirstName = "Покупатель"
	}
	if name := strings.TrimSpace(chat.Username); name != "" {
		u.Username = &name
	}
	if chat.LastName != "" {
		last := chat.LastName
		u.LastName = &last
	}
	if err := a.users.Upsert(ctx, u); err != nil {
		logger.Warn(ctx, component, "order.user_upsert_failed",
			slog.Int64("user_id", req.UserID),
			slog.String("err", err.Error()),
		)
		return current
	}
	return &u
}

func (a *App) notifyNewOrder(ctx context.Context, orderID int64, req OrderRequest, user *shop.User) {
	var sb strings.Builder
	for _, item := range req.Items {
		marker := ""
		if item.IsPreorder {
			marker = " (🟣 Предзаказ)"
		}
		fmt.Fprintf(&sb, "▫️ [%s](%s/product/%d)%s — %d шт. (%s ₽)\n",
			item.Name, a.cfg.Shop.WebAppURL, item.ProductID, marker, item.Quantity, formatAmount(item.Price))
	}

	firstName := req.FirstName
	lastName := ""
	display := "[Нет юзернейма]"
	if user != nil {
		if user.FirstName != "" {
			firstName = user.FirstName
		}
		if user.LastName != nil {
			lastName = *user.LastName
		}
		if user.Username != nil {
			display = "@" + *user.Username
		}
	}

	text := fmt.Sprintf(
		"🚀 *НОВЫЙ ЗАКАЗ #%d*\n━━━━━━━━━━━━━━━━━━\n\n"+
			"👤 *Покупатель:* %s %s\n"+
			"🔗 *Контакт:* %s\n"+
			"🆔 *ID:* %d\n\n"+
			"📦 *Состав заказа:*\n%s\n"+
			"💰 *ИТОГО К ОПЛАТЕ: %.0f ₽*\n━━━━━━━━━━━━━━━━━━",
		orderID, firstName, lastName, display, req.UserID, sb.String(), req.Total)

	markup := keyboard.Inline(
		keyboard.Row(keyboard.URLBtn("👤 Посмотреть профиль", fmt.Sprintf("tg://user?id=%d", req.UserID))),
		keyboard.Row(keyboard.Btn("✅ Подтвердить", fmt.Sprintf("confirm_order_%d", orderID))),
	)
	opts := &tele.SendOptions{
		ParseMode:             tele.ModeMarkdown,
		DisableWebPagePreview: true,
		ReplyMarkup:           markup,
	}
	if _, err := a.bot.Send(&tele.User{ID: a.adminID}, text, opts); err != nil {
		logger.Error(ctx, component, "order.notify_failed",
			slog.Int64("order_id", orderID),
			slog.String("err", err.Error()),
		)
	}
}
