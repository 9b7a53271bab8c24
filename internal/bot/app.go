package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/teleshop/core/config"
	"github.com/m3rciful/teleshop/core/logger"
	tghelpers "github.com/m3rciful/teleshop/core/telegram/helpers"
	"github.com/m3rciful/teleshop/core/telegram/keyboard"
	"github.com/m3rciful/teleshop/core/telegram/middleware"
	"github.com/m3rciful/teleshop/internal/shop"
	"github.com/m3rciful/teleshop/internal/wizard"
)

const component = "tg.shop"

// Deps aggregates the services the bot layer dispatches into.
type Deps struct {
	Config    *coreconfig.Config
	Engine    *wizard.Engine
	Products  *shop.ProductRepo
	Users     *shop.UserRepo
	Orders    *shop.OrderRepo
	Catalog   *shop.Catalog
	Confirmer *shop.Confirmer
}

// App routes Telegram updates to the wizard engine and shop services.
type App struct {
	bot       *tele.Bot
	cfg       *coreconfig.Config
	engine    *wizard.Engine
	products  *shop.ProductRepo
	users     *shop.UserRepo
	orders    *shop.OrderRepo
	catalog   *shop.Catalog
	confirmer *shop.Confirmer
	adminID   int64
	pageSize  int
}

// New builds the update router on top of an initialized bot.
func New(b *tele.Bot, d Deps) *App {
	return &App{
		bot:       b,
		cfg:       d.Config,
		engine:    d.Engine,
		products:  d.Products,
		users:     d.Users,
		orders:    d.Orders,
		catalog:   d.Catalog,
		confirmer: d.Confirmer,
		adminID:   d.Config.Telegram.AdminID,
		pageSize:  d.Config.Shop.PageSize(),
	}
}

// AdminNotifier delivers wizard replies produced outside a request
// exchange (media-group flushes) straight to the administrator's chat.
func AdminNotifier(b *tele.Bot, adminID int64) wizard.Notifier {
	return func(ctx context.Context, r wizard.Reply) {
		if r.Empty() {
			return
		}
		opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: Markup(r)}
		if _, err := b.Send(&tele.User{ID: adminID}, r.Text, opts); err != nil {
			logger.Error(ctx, component, "notify.failed", slog.String("err", err.Error()))
		}
	}
}

// Register attaches middleware and handlers to the bot.
func (a *App) Register() {
	a.bot.Use(middleware.RecoverMiddleware)
	if interval := time.Duration(a.cfg.RateLimit.IntervalMS) * time.Millisecond; interval > 0 {
		exclude := make(map[string]struct{}, len(a.cfg.RateLimit.ExcludeUpdates))
		for _, kind := range a.cfg.RateLimit.ExcludeUpdates {
			exclude[kind] = struct{}{}
		}
		a.bot.Use(middleware.RateLimitMiddleware(middleware.RateLimitOptions{
			Interval: interval,
			Exclude:  exclude,
		}))
	}
	a.bot.Use(middleware.LoggerMiddleware)

	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{AdminID: a.adminID})

	a.bot.Handle("/start", a.handleStart)
	a.bot.Handle("/admin", a.handleAdmin, adminOnly)
	a.bot.Handle("/post", a.handlePost, adminOnly)
	a.bot.Handle(tele.OnCallback, a.handleCallback, adminOnly)
	a.bot.Handle(tele.OnText, a.handleText, adminOnly)
	a.bot.Handle(tele.OnPhoto, a.handlePhoto, adminOnly)
}

func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	from := c.Sender()
	if from == nil {
		return nil
	}

	u := shop.User{ID: from.ID, FirstName: from.FirstName}
	if u.FirstName == "" {
		u.FirstName = "Без имени"
	}
	if name := strings.TrimSpace(from.Username); name != "" {
		u.Username = &name
	}
	if from.LastName != "" {
		last := from.LastName
		u.LastName = &last
	}
	if err := a.users.Upsert(ctx, u); err != nil {
		logger.Error(ctx, component, "user.upsert_failed",
			slog.Int64("user_id", from.ID),
			slog.String("err", err.Error()),
		)
	}
	return tghelpers.SendMD(c, greeting(u.FirstName), keyboard.RemoveKeyboard())
}

func (a *App) handleAdmin(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if err := a.engine.Cancel(ctx); err != nil {
		return err
	}
	return tghelpers.SendMD(c, panelText, panelKeyboard())
}

// handlePost publishes a promo message with a storefront link to a channel.
func (a *App) handlePost(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	args := c.Args()
	if len(args) == 0 {
		return tghelpers.SendText(c, "Укажите канал: /post <channel>")
	}
	channel := args[0]
	if !strings.HasPrefix(channel, "@") {
		channel = "@" + channel
	}
	chat, err := a.bot.ChatByUsername(channel)
	if err != nil {
		logger.Warn(ctx, component, "post.chat_lookup_failed",
			slog.String("channel", channel),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, "Не удалось найти канал "+channel)
	}

	markup := keyboard.Inline(keyboard.Row(keyboard.URLBtn("🛍️ Открыть магазин", a.cfg.Shop.WebAppURL)))
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markup}
	if _, err := a.bot.Send(chat, "🛍️ *Наш магазин открыт!*\nВыбирай и заказывай прямо в Telegram.", opts); err != nil {
		logger.Error(ctx, component, "post.failed",
			slog.String("channel", channel),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, "Не удалось отправить сообщение в канал.")
	}
	return tghelpers.SendText(c, "Опубликовано в "+channel)
}

func (a *App) handleText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	r, err := a.engine.HandleText(ctx, c.Text())
	if err != nil {
		return err
	}
	return a.sendReply(c, r)
}

func (a *App) handlePhoto(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return nil
	}
	r, err := a.engine.HandlePhoto(ctx, wizard.Photo{
		FileID:  msg.Photo.FileID,
		GroupID: msg.AlbumID,
	})
	if err != nil {
		return err
	}
	return a.sendReply(c, r)
}

func (a *App) handleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	_ = c.Respond(&tele.CallbackResponse{})

	ctx := tghelpers.BuildContext(c)
	action, ok := ParseAction(cb.Data)
	if !ok {
		logger.Debug(ctx, component, "callback.unknown", slog.String("action", cb.Data))
		return nil
	}

	switch action.Kind {
	case ActionAdminAdd:
		r, err := a.engine.StartAdd(ctx)
		if err != nil {
			return err
		}
		return a.editReply(c, r)

	case ActionAdminCancel:
		if err := a.engine.Cancel(ctx); err != nil {
			return err
		}
		return a.editOrSend(c, panelText, panelKeyboard())

	case ActionAdminList:
		return a.renderList(c, ctx, action.Page)

	case ActionCategory:
		r, err := a.engine.ChooseCategory(ctx, action.CategoryKey)
		if err != nil {
			return err
		}
		return a.editReply(c, r)

	case ActionView:
		return a.renderProduct(c, ctx, action.ProductID)

	case ActionEdit:
		return a.renderEditMenu(c, ctx, action.ProductID, false)

	case ActionEditField:
		r, err := a.engine.StartEdit(ctx, action.ProductID, action.Field)
		if err != nil {
			return err
		}
		return a.sendReply(c, r)

	case ActionDelete:
		return a.editOrSend(c, "⚠️ *Вы уверены, что хотите удалить этот товар?*", deleteConfirmKeyboard(action.ProductID))

	case ActionConfirmDelete:
		return a.deleteProduct(c, ctx, action.ProductID)

	case ActionTogglePreorder:
		if _, err := a.products.TogglePreorder(ctx, action.ProductID); err != nil {
			if errors.Is(err, shop.ErrNotFound) {
				return nil
			}
			return err
		}
		return a.renderEditMenu(c, ctx, action.ProductID, true)

	case ActionDiscountChoice:
		r, err := a.engine.ChooseDiscount(ctx, action.Yes)
		if err != nil {
			return err
		}
		return a.editReply(c, r)

	case ActionPreorderChoice:
		r, err := a.engine.ChoosePreorder(ctx, action.Yes)
		if err != nil {
			return err
		}
		return a.editReply(c, r)

	case ActionConfirmOrder:
		return a.confirmOrder(c, ctx, action.OrderID)
	}

	return nil
}

func (a *App) renderList(c tele.Context, ctx context.Context, page int) error {
	items, total, err := a.products.Page(ctx, page*a.pageSize, a.pageSize)
	if err != nil {
		logger.Error(ctx, component, "list.failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, dbErrorText)
	}
	if len(items) == 0 {
		return tghelpers.SendText(c, emptyList)
	}

	rows := make([][]keyboard.InlineBtn, 0, len(items)+2)
	for _, p := range items {
		rows = append(rows, keyboard.Row(keyboard.Btn(p.Name, fmt.Sprintf("view_%d", p.ID))))
	}
	var nav []keyboard.InlineBtn
	if page > 0 {
		nav = append(nav, keyboard.Btn("⬅️ Пред.", fmt.Sprintf("admin_list_%d", page-1)))
	}
	if (page+1)*a.pageSize < total {
		nav = append(nav, keyboard.Btn("След. ➡️", fmt.Sprintf("admin_list_%d", page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, keyboard.Row(keyboard.Btn("🏠 В меню", "admin_cancel")))

	title := fmt.Sprintf("📦 *Список товаров (Стр. %d)*", page+1)
	return a.editOrSend(c, title, keyboard.Inline(rows...))
}

func (a *App) renderProduct(c tele.Context, ctx context.Context, id int64) error {
	p, err := a.products.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, shop.ErrNotFound) {
			return nil
		}
		return err
	}
	_ = c.Delete()
	caption := productCaption(p)
	if len(p.Images) > 0 {
		return tghelpers.SendPhotoMD(c, p.Images[0], caption, viewKeyboard(p.ID))
	}
	return tghelpers.SendMD(c, caption, viewKeyboard(p.ID))
}

func (a *App) renderEditMenu(c tele.Context, ctx context.Context, id int64, toggled bool) error {
	p, err := a.products.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, shop.ErrNotFound) {
			return nil
		}
		return err
	}
	return a.editOrSend(c, editMenuText(p.Name, toggled), editMenuKeyboard(p))
}

func (a *App) deleteProduct(c tele.Context, ctx context.Context, id int64) error {
	if err := a.catalog.Delete(ctx, id); err != nil {
		if errors.Is(err, shop.ErrNotFound) {
			return nil
		}
		logger.Error(ctx, component, "delete.failed",
			slog.Int64("product_id", id),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, dbErrorText)
	}
	_ = c.Delete()
	return tghelpers.SendMD(c, deletedText, deletedKeyboard())
}

func (a *App) confirmOrder(c tele.Context, ctx context.Context, orderID int64) error {
	confirmed, err := a.confirmer.Confirm(ctx, orderID)
	if err != nil {
		if errors.Is(err, shop.ErrNotFound) {
			return nil
		}
		logger.Error(ctx, component, "order.confirm_failed",
			slog.Int64("order_id", orderID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, dbErrorText)
	}
	if !confirmed {
		return nil
	}
	msg := c.Message()
	if msg == nil || msg.Text == "" {
		return nil
	}
	return tghelpers.EditMD(c, msg.Text+"\n\n"+confirmedTag)
}

// sendReply sends a wizard reply as a fresh message.
func (a *App) sendReply(c tele.Context, r wizard.Reply) error {
	if r.Empty() {
		return nil
	}
	return tghelpers.SendMD(c, r.Text, Markup(r))
}

// editReply rewrites the message the pressed button was attached to.
func (a *App) editReply(c tele.Context, r wizard.Reply) error {
	if r.Empty() {
		return nil
	}
	return tghelpers.EditOrSendMD(c, r.Text, Markup(r))
}

func (a *App) editOrSend(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return tghelpers.EditOrSendMD(c, text, markup)
}
