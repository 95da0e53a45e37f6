package keyboard

import "testing"

func TestInlineButtonsRowsRawData(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "⭐", Data: "rating|1"}, {Text: "⭐⭐", Data: "rating|2"}},
		[]InlineBtn{{Text: "⭐⭐⭐", Data: "rating|3"}},
	)
	if len(m.InlineKeyboard) != 2 || len(m.InlineKeyboard[0]) != 2 {
		t.Fatalf("unexpected layout %+v", m.InlineKeyboard)
	}
	if got := m.InlineKeyboard[0][1].Data; got != "rating|2" {
		t.Fatalf("data = %q", got)
	}
}

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons([]string{"A", "B"}, []string{"C"})
	if !m.ResizeKeyboard {
		t.Fatalf("expected resized keyboard")
	}
	if len(m.ReplyKeyboard) != 2 || m.ReplyKeyboard[0][1].Text != "B" || m.ReplyKeyboard[1][0].Text != "C" {
		t.Fatalf("unexpected keyboard %+v", m.ReplyKeyboard)
	}
}
