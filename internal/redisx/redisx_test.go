package redisx

import (
	"testing"

	"fontier-admin/internal/config"
	"fontier-admin/internal/querycache"
)

func TestOpen_DisabledWithoutAddr(t *testing.T) {
	rdb, closeFn, err := Open(&config.Config{})
	if err != nil || rdb != nil {
		t.Fatalf("rdb=%v err=%v", rdb, err)
	}
	closeFn()
}

func TestL2_KeyLayout(t *testing.T) {
	l := NewL2(nil, "")
	if got := l.key(querycache.K("clientFonts", "hw-1")); got != "fontier:qc:clientFonts:hw-1" {
		t.Fatalf("key: %s", got)
	}
	if got := NewL2(nil, "x:").key(querycache.K("fonts")); got != "x:fonts:" {
		t.Fatalf("key: %s", got)
	}
	k := querycache.K("clientFonts", "hw-1")
	if got := l.keyVersionKey(k); got != "fontier:qc:~ver:clientFonts:hw-1" {
		t.Fatalf("key version: %s", got)
	}
	if got := l.kindVersionKey("clientFonts"); got != "fontier:qc:~ver:clientFonts" {
		t.Fatalf("kind version: %s", got)
	}
}
