package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes an inline button carrying a raw callback payload.
// Data is sent to Telegram as-is so the same action vocabulary can be
// produced by the bot and by external senders (e.g. the order intake).
type InlineBtn struct {
	Text string
	Data string
	URL  string
}

// RemoveKeyboard returns a markup that hides the reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// Inline builds an inline keyboard from rows of InlineBtn.
func Inline(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = tele.InlineButton{Text: btn.Text, Data: btn.Data, URL: btn.URL}
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// InlineColumn builds an inline keyboard where each button is placed on its own row.
func InlineColumn(buttons ...InlineBtn) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []InlineBtn{b})
	}
	return Inline(rows...)
}

// Row is a convenience constructor for one keyboard row.
func Row(buttons ...InlineBtn) []InlineBtn {
	return buttons
}

// Btn constructs a callback button with a raw payload.
func Btn(text, data string) InlineBtn {
	return InlineBtn{Text: text, Data: data}
}

// URLBtn constructs a button that opens an external link.
func URLBtn(text, url string) InlineBtn {
	return InlineBtn{Text: text, URL: url}
}
