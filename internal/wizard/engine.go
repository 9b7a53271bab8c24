package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/teleshop/core/logger"
	"github.com/m3rciful/teleshop/internal/media"
	"github.com/m3rciful/teleshop/internal/shop"
)

// Catalog is the product persistence the wizard commits into.
type Catalog interface {
	Create(ctx context.Context, p shop.NewProduct) (int64, error)
	Update(ctx context.Context, id int64, patch shop.ProductPatch) error
}

// Uploader moves one photo into blob storage and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, fileID string) (string, error)
}

// Notifier delivers a reply outside a request/response exchange. Media
// group flushes fire on a timer goroutine, so their replies cannot ride
// the inbound update.
type Notifier func(ctx context.Context, r Reply)

// Photo is one inbound photo message. GroupID is empty unless the photo
// belongs to a multi-photo send.
type Photo struct {
	FileID  string
	GroupID string
}

const component = "service.wizard"

// Categories offered by the add flow, in keyboard order.
var categoryKeys = []string{"Clothes", "Shoes", "Accs"}

var categories = map[string]string{
	"Clothes": "Одежда",
	"Shoes":   "Обувь",
	"Accs":    "Аксессуары",
}

var categoryLabels = map[string]string{
	"Clothes": "👕 Одежда",
	"Shoes":   "👟 Обувь",
	"Accs":    "👜 Аксессуары",
}

// Engine drives the add and edit flows for the single configured
// administrator. It is transport-free: inputs arrive as typed calls,
// outputs leave as Reply values or through the Notifier.
type Engine struct {
	adminID  int64
	store    Store
	catalog  Catalog
	uploader Uploader
	batcher  *media.Batcher
	notify   Notifier
}

// NewEngine wires the wizard together.
func NewEngine(adminID int64, store Store, catalog Catalog, uploader Uploader, batcher *media.Batcher, notify Notifier) *Engine {
	return &Engine{
		adminID:  adminID,
		store:    store,
		catalog:  catalog,
		uploader: uploader,
		batcher:  batcher,
		notify:   notify,
	}
}

// StartAdd opens a fresh add flow, discarding any previous state.
func (e *Engine) StartAdd(ctx context.Context) (Reply, error) {
	if err := e.store.Put(ctx, e.adminID, State{Step: Step{Kind: StepAwaitCategory}}); err != nil {
		return Reply{}, err
	}
	rows := make([][]Button, 0, len(categoryKeys)+1)
	for _, key := range categoryKeys {
		rows = append(rows, []Button{{Text: categoryLabels[key], Action: "cat_" + key}})
	}
	rows = append(rows, cancelRow())
	return Reply{Text: "📁 *Выберите категорию товара:*", Buttons: rows}, nil
}

// ChooseCategory records the chosen category and asks for the name.
func (e *Engine) ChooseCategory(ctx context.Context, key string) (Reply, error) {
	st, err := e.store.Get(ctx, e.adminID)
	if err != nil {
		return Reply{}, err
	}
	if st == nil || st.Step.Kind != StepAwaitCategory {
		return Reply{}, nil
	}
	category, ok := categories[key]
	if !ok {
		return Reply{}, nil
	}
	st.Step = Step{Kind: StepAwaitName}
	st.Draft.Category = category
	if err := e.store.Put(ctx, e.adminID, *st); err != nil {
		return Reply{}, err
	}
	return Reply{
		Text:    fmt.Sprintf("📂 Категория: *%s*\n\n📝 *Введите название товара:*", category),
		Buttons: [][]Button{cancelRow()},
	}, nil
}

// ChooseDiscount branches between asking for the old price and the
// preorder question.
func (e *Engine) ChooseDiscount(ctx context.Context, yes bool) (Reply, error) {
	st, err := e.store.Get(ctx, e.adminID)
	if err != nil {
		return Reply{}, err
	}
	if st == nil || st.Step.Kind != StepAskDiscount {
		return Reply{}, nil
	}
	if yes {
		st.Step = Step{Kind: StepAwaitOldPrice}
		if err := e.store.Put(ctx, e.adminID, *st); err != nil {
			return Reply{}, err
		}
		return Reply{
			Text:    "📉 Укажите старую цену (в рублях):",
			Buttons: [][]Button{cancelRow()},
		}, nil
	}
	st.Step = Step{Kind: StepAskPreorder}
	if err := e.store.Put(ctx, e.adminID, *st); err != nil {
		return Reply{}, err
	}
	return preorderPrompt(), nil
}

// ChoosePreorder is the terminal add-flow step: it inserts the drafted
// product. On a persistence failure the state is kept so the
// administrator can retry without re-entering everything.
func (e *Engine) ChoosePreorder(ctx context.Context, yes bool) (Reply, error) {
	st, err := e.store.Get(ctx, e.adminID)
	if err != nil {
		return Reply{}, err
	}
	if st == nil || st.Step.Kind != StepAskPreorder {
		return Reply{}, nil
	}

	product := shop.NewProduct{
		Name:        st.Draft.Name,
		Category:    st.Draft.Category,
		Description: st.Draft.Description,
		Price:       st.Draft.Price,
		OldPrice:    st.Draft.OldPrice,
		Quantity:    st.Draft.Quantity,
		Images:      st.Draft.Images,
		IsPreorder:  yes,
	}
	id, err := e.catalog.Create(ctx, product)
	if err != nil {
		logger.Error(ctx, component, "commit.failed", slog.String("err", err.Error()))
		return Reply{Text: "❌ Ошибка базы данных. Попробуйте ещё раз."}, nil
	}
	if err := e.store.Delete(ctx, e.adminID); err != nil {
		return Reply{}, err
	}
	logger.Info(ctx, component, "product.committed",
		slog.Int64("product_id", id),
		slog.Int("photos", len(product.Images)),
	)
	text := "✅ Товар добавлен!"
	if yes {
		text = "✅ Товар добавлен как *предзаказ*!"
	}
	return Reply{Text: text, Buttons: listRow()}, nil
}

// StartEdit opens a single-step edit flow for one product attribute.
func (e *Engine) StartEdit(ctx context.Context, productID int64, field Field) (Reply, error) {
	var prompt string
	switch field {
	case FieldName:
		prompt = "Введите новое название:"
	case FieldPrice:
		prompt = "Введите новую цену:"
	case FieldPhoto:
		prompt = "Отправьте новое фото (одно или группу):"
	case FieldQty:
		prompt = "Введите новое количество:"
	case FieldDiscount:
		prompt = "Укажите старую цену для скидки (или 0 для удаления):"
	default:
		return Reply{}, nil
	}
	st := State{Step: EditField(productID, field)}
	if err := e.store.Put(ctx, e.adminID, st); err != nil {
		return Reply{}, err
	}
	back := fmt.Sprintf("edit_%d", productID)
	return Reply{
		Text:    prompt,
		Buttons: [][]Button{{{Text: "⬅️ Отмена", Action: back}}},
	}, nil
}

// Cancel drops the wizard state unconditionally. An upload already in
// flight completes and is discarded at flush time.
func (e *Engine) Cancel(ctx context.Context) error {
	return e.store.Delete(ctx, e.adminID)
}

// HandleText advances text-driven steps. Input of the wrong kind for the
// current step is ignored with no reply and no state change.
func (e *Engine) HandleText(ctx context.Context, text string) (Reply, error) {
	st, err := e.store.Get(ctx, e.adminID)
	if err != nil {
		return Reply{}, err
	}
	if st == nil {
		return Reply{}, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, nil
	}

	switch st.Step.Kind {
	case StepAwaitName:
		st.Draft.Name = text
		st.Step = Step{Kind: StepAwaitDesc}
		if err := e.store.Put(ctx, e.adminID, *st); err != nil {
			return Reply{}, err
		}
		return Reply{
			Text:    fmt.Sprintf("✅ Имя: %s\n📝 Введите описание:", text),
			Buttons: [][]Button{cancelRow()},
		}, nil

	case StepAwaitDesc:
		st.Draft.Description = text
		st.Step = Step{Kind: StepAwaitPrice}
		if err := e.store.Put(ctx, e.adminID, *st); err != nil {
			return Reply{}, err
		}
		return Reply{
			Text:    "✅ Описание сохранено\n💰 Введите цену:",
			Buttons: [][]Button{cancelRow()},
		}, nil

	case StepAwaitPrice:
		price, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Reply{Text: "Нужно число!"}, nil
		}
		st.Draft.Price = price
		st.Step = Step{Kind: StepAwaitQty}
		if err := e.store.Put(ctx, e.adminID, *st); err != nil {
			return Reply{}, err
		}
		return Reply{
			Text:    fmt.Sprintf("✅ Цена: %s ₽\n🔢 Введите количество:", formatPrice(price)),
			Buttons: [][]Button{cancelRow()},
		}, nil

	case StepAwaitQty:
		qty, err := strconv.Atoi(text)
		if err != nil {
			return Reply{Text: "Нужно число!"}, nil
		}
		st.Draft.Quantity = qty
		st.Draft.Images = []string{}
		st.Step = Step{Kind: StepAwaitPhoto}
		if err := e.store.Put(ctx, e.adminID, *st); err != nil {
			return Reply{}, err
		}
		return Reply{
			Text:    fmt.Sprintf("✅ Кол-во: %d шт.\n📸 Отправьте фото:", qty),
			Buttons: [][]Button{cancelRow()},
		}, nil

	case StepAwaitOldPrice:
		oldPrice, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Reply{Text: "Нужно число!"}, nil
		}
		st.Draft.OldPrice = &oldPrice
		st.Step = Step{Kind: StepAskPreorder}
		if err := e.store.Put(ctx, e.adminID, *st); err != nil {
			return Reply{}, err
		}
		return preorderPrompt(), nil

	case StepEditField:
		return e.applyTextEdit(ctx, st.Step, text)
	}

	return Reply{}, nil
}

func (e *Engine) applyTextEdit(ctx context.Context, step Step, text string) (Reply, error) {
	var patch shop.ProductPatch
	switch step.Field {
	case FieldName:
		patch.Name = &text
	case FieldPrice:
		price, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Reply{Text: "Нужно число!"}, nil
		}
		patch.Price = &price
	case FieldQty:
		qty, err := strconv.Atoi(text)
		if err != nil {
			return Reply{Text: "Нужно число!"}, nil
		}
		patch.Quantity = &qty
	case FieldDiscount:
		oldPrice, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Reply{Text: "Нужно число!"}, nil
		}
		if oldPrice == 0 {
			patch.ClearOldPrice = true
		} else {
			patch.OldPrice = &oldPrice
		}
	default:
		// A photo field ignores text input.
		return Reply{}, nil
	}

	if err := e.catalog.Update(ctx, step.ProductID, patch); err != nil {
		logger.Error(ctx, component, "edit.failed",
			slog.Int64("product_id", step.ProductID),
			slog.String("field", string(step.Field)),
			slog.String("err", err.Error()),
		)
		return Reply{Text: "❌ Ошибка базы данных. Попробуйте ещё раз."}, nil
	}
	if err := e.store.Delete(ctx, e.adminID); err != nil {
		return Reply{}, err
	}
	return Reply{Text: "✅ Изменения сохранены!", Buttons: listRow()}, nil
}

// HandlePhoto uploads one photo and routes it through the media batcher.
// Grouped photos reply asynchronously via the Notifier once the group
// goes quiet; the immediate return is then empty.
func (e *Engine) HandlePhoto(ctx context.Context, p Photo) (Reply, error) {
	st, err := e.store.Get(ctx, e.adminID)
	if err != nil {
		return Reply{}, err
	}
	if st == nil {
		return Reply{}, nil
	}
	editing := st.Step.Kind == StepEditField && st.Step.Field == FieldPhoto
	if st.Step.Kind != StepAwaitPhoto && !editing {
		return Reply{}, nil
	}

	ref, err := e.uploader.Upload(ctx, p.FileID)
	if err != nil {
		logger.Warn(ctx, component, "photo.upload_failed",
			slog.String("group_id", p.GroupID),
			slog.String("err", err.Error()),
		)
		return Reply{
			Text:    "❌ Не удалось загрузить фото. Отправьте ещё раз.",
			Buttons: [][]Button{cancelRow()},
		}, nil
	}

	if editing {
		productID := st.Step.ProductID
		e.batcher.Add(p.GroupID, ref, func(refs []string) {
			e.finishPhotoEdit(productID, refs)
		})
	} else {
		e.batcher.Add(p.GroupID, ref, e.finishAddPhotos)
	}
	return Reply{}, nil
}

// finishAddPhotos commits a flushed batch into the draft. The state is
// re-read because the administrator may have cancelled while the group
// was still collecting; a stale batch is then discarded.
func (e *Engine) finishAddPhotos(refs []string) {
	ctx := context.Background()
	st, err := e.store.Get(ctx, e.adminID)
	if err != nil {
		logger.Error(ctx, component, "photo.flush_failed", slog.String("err", err.Error()))
		return
	}
	if st == nil || st.Step.Kind != StepAwaitPhoto {
		logger.Debug(ctx, component, "photo.batch_discarded", slog.Int("photos", len(refs)))
		return
	}
	st.Draft.Images = refs
	st.Step = Step{Kind: StepAskDiscount}
	if err := e.store.Put(ctx, e.adminID, *st); err != nil {
		logger.Error(ctx, component, "photo.flush_failed", slog.String("err", err.Error()))
		return
	}
	text := "📸 Фото получено. Есть скидка?"
	if len(refs) > 1 {
		text = fmt.Sprintf("📸 Загружено %d фото. Есть скидка?", len(refs))
	}
	e.notify(ctx, discountPrompt(text))
}

func (e *Engine) finishPhotoEdit(productID int64, refs []string) {
	ctx := context.Background()
	st, err := e.store.Get(ctx, e.adminID)
	if err != nil {
		logger.Error(ctx, component, "photo.flush_failed", slog.String("err", err.Error()))
		return
	}
	if st == nil || st.Step.Kind != StepEditField || st.Step.Field != FieldPhoto || st.Step.ProductID != productID {
		logger.Debug(ctx, component, "photo.batch_discarded", slog.Int("photos", len(refs)))
		return
	}
	if err := e.catalog.Update(ctx, productID, shop.ProductPatch{Images: refs}); err != nil {
		logger.Error(ctx, component, "edit.failed",
			slog.Int64("product_id", productID),
			slog.String("err", err.Error()),
		)
		e.notify(ctx, Reply{Text: "❌ Ошибка базы данных. Попробуйте ещё раз."})
		return
	}
	if err := e.store.Delete(ctx, e.adminID); err != nil {
		logger.Error(ctx, component, "photo.flush_failed", slog.String("err", err.Error()))
		return
	}
	e.notify(ctx, Reply{Text: "✅ Изменения сохранены!", Buttons: listRow()})
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
