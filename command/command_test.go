package command

import (
	"strings"
	"testing"

	"github.com/lifelink/node/config"
	"github.com/lifelink/node/node"
	"github.com/lifelink/node/radio"
)

func newTestNode(t *testing.T) *node.Node {
	t.Helper()
	medium := radio.NewSharedMedium()
	cfg := config.DefaultNodeConfig(0x0042, "tester")
	drv := medium.Join(-40, 10)
	return node.New(cfg, config.DefaultTimingConfig(), drv, nil, nil)
}

func TestWhoAmI(t *testing.T) {
	n := newTestNode(t)
	got := Handle(n, "WHOAMI")
	want := "OK|WHOAMI|0042|tester"
	if got != want {
		t.Errorf("Handle(WHOAMI) = %q, want %q", got, want)
	}
}

func TestNameSanitizesForbiddenChars(t *testing.T) {
	n := newTestNode(t)
	got := Handle(n, "NAME|ba|d:na;me")
	want := "OK|NAME|ba_d_na_me"
	if got != want {
		t.Errorf("Handle(NAME) = %q, want %q", got, want)
	}
}

func TestSendFormatError(t *testing.T) {
	n := newTestNode(t)
	got := Handle(n, "SEND|zzzz|hi")
	if got != "ERR|SEND|format" {
		t.Errorf("Handle(SEND bad dst) = %q, want ERR|SEND|format", got)
	}
}

func TestSendQueuedThenHistoryRoundtrip(t *testing.T) {
	n := newTestNode(t)
	if got := Handle(n, "SEND|0099|shots fired behind the market urgent"); got != "OK|SEND|queued" {
		t.Fatalf("Handle(SEND) = %q, want OK|SEND|queued", got)
	}
	if got := Handle(n, "HISTCOUNT"); got != "OK|HISTCOUNT|1" {
		t.Errorf("Handle(HISTCOUNT) = %q, want OK|HISTCOUNT|1", got)
	}
	got := Handle(n, "HISTGET|0")
	if !strings.HasPrefix(got, "OK|HIST|0|S|0099|") {
		t.Errorf("Handle(HISTGET|0) = %q, want prefix OK|HIST|0|S|0099|", got)
	}
	if !strings.Contains(got, "|DANGER|") {
		t.Errorf("Handle(HISTGET|0) = %q, want DANGER intent", got)
	}
}

func TestHistGetOutOfRange(t *testing.T) {
	n := newTestNode(t)
	got := Handle(n, "HISTGET|0")
	if got != "ERR|HIST|range" {
		t.Errorf("Handle(HISTGET|0) on empty history = %q, want ERR|HIST|range", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	n := newTestNode(t)
	got := Handle(n, "BOGUS|1|2")
	if got != "ERR|CMD|unknown" {
		t.Errorf("Handle(BOGUS) = %q, want ERR|CMD|unknown", got)
	}
}
