package sessions_test

import (
	"testing"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/search"
	"storefront/internal/sessions"
)

func newRegistry(clock cache.Clock) *sessions.Registry {
	cfg := config.Defaults().Search
	return sessions.NewRegistry(clock, 30*time.Minute, func() *search.Store {
		return search.NewStore(nil, cfg)
	})
}

func TestRegistryReturnsSameStoreForSameID(t *testing.T) {
	r := newRegistry(cache.NewFakeClock(time.Now()))
	a, sid := r.Get("")
	if sid == "" {
		t.Fatal("no id issued")
	}
	b, sid2 := r.Get(sid)
	if a != b || sid2 != sid {
		t.Fatalf("different store for %s", sid)
	}
}

func TestRegistryRejectsMalformedID(t *testing.T) {
	r := newRegistry(cache.NewFakeClock(time.Now()))
	_, sid := r.Get("not-a-uuid")
	if sid == "not-a-uuid" {
		t.Fatal("malformed id accepted")
	}
}

func TestRegistryIdleExpiry(t *testing.T) {
	clock := cache.NewFakeClock(time.Now())
	r := newRegistry(clock)
	a, sid := r.Get("")

	// each access refreshes the idle window
	clock.Advance(20 * time.Minute)
	if b, _ := r.Get(sid); b != a {
		t.Fatal("store expired early")
	}
	clock.Advance(20 * time.Minute)
	if b, _ := r.Get(sid); b != a {
		t.Fatal("access did not refresh idle window")
	}

	clock.Advance(31 * time.Minute)
	b, sid2 := r.Get(sid)
	if b == a || sid2 == sid {
		t.Fatal("idle store survived")
	}
}

func TestRegistryDrop(t *testing.T) {
	r := newRegistry(cache.NewFakeClock(time.Now()))
	a, sid := r.Get("")
	r.Drop(sid)
	if b, _ := r.Get(sid); b == a {
		t.Fatal("dropped store returned")
	}
}

func TestRegistrySweepRemovesIdleStores(t *testing.T) {
	clock := cache.NewFakeClock(time.Now())
	r := newRegistry(clock)
	_, idle := r.Get("")
	clock.Advance(20 * time.Minute)
	_, active := r.Get("")

	clock.Advance(15 * time.Minute)
	if n := r.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if r.Len() != 1 {
		t.Fatalf("len = %d", r.Len())
	}
	if _, sid := r.Get(active); sid != active {
		t.Fatal("active session swept")
	}
	if _, sid := r.Get(idle); sid == idle {
		t.Fatal("idle session kept")
	}
}
