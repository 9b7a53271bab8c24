package wizard

// Button is one inline key: a label plus the opaque action payload the
// transport sends back when it is pressed.
type Button struct {
	Text   string
	Action string
}

// Reply is a transport-agnostic outbound message. An empty Reply means the
// input was ignored and nothing should be sent.
type Reply struct {
	Text    string
	Buttons [][]Button
}

// Empty reports whether there is nothing to send.
func (r Reply) Empty() bool {
	return r.Text == "" && len(r.Buttons) == 0
}

func cancelRow() []Button {
	return []Button{{Text: "❌ Отмена", Action: "admin_cancel"}}
}

func yesNoKeyboard(yesAction, noAction string) [][]Button {
	return [][]Button{
		{{Text: "Да", Action: yesAction}, {Text: "Нет", Action: noAction}},
		cancelRow(),
	}
}

func listRow() [][]Button {
	return [][]Button{{{Text: "📦 К списку", Action: "admin_list"}}}
}

func discountPrompt(text string) Reply {
	return Reply{
		Text:    text,
		Buttons: yesNoKeyboard("ask_discount_yes", "ask_discount_no"),
	}
}

func preorderPrompt() Reply {
	return Reply{
		Text:    "🟣 *Это товар по предзаказу?*",
		Buttons: yesNoKeyboard("ask_preorder_yes", "ask_preorder_no"),
	}
}
