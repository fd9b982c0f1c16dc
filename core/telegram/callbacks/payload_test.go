package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		data, unique, payload string
	}{
		{"\fflt|Chevrolet:*", "flt", "Chevrolet:*"},
		{"\fmenu", "menu", ""},
		{"intake_pick|Tracker", "intake_pick", "Tracker"},
		{"\fflt|a|b", "flt", "a|b"},
	}
	for _, tc := range cases {
		u, p := ParseCallbackData(&tele.Callback{Data: tc.data})
		if u != tc.unique || p != tc.payload {
			t.Fatalf("ParseCallbackData(%q) = %q, %q; want %q, %q", tc.data, u, p, tc.unique, tc.payload)
		}
	}
	if u, p := ParseCallbackData(nil); u != "" || p != "" {
		t.Fatalf("nil callback parsed to %q, %q", u, p)
	}
}
