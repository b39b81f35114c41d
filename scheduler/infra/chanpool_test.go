package infra

import (
	"context"
	"testing"
	"time"
)

func TestChanPool_BlocksAtCapacity(t *testing.T) {
	p := NewChanPool(2)

	r1, ok := p.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected first acquire")
	}
	_, ok = p.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected second acquire")
	}
	if p.InUse() != 2 {
		t.Fatalf("expected 2 in use, got %d", p.InUse())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := p.Acquire(ctx); ok {
		t.Fatalf("expected third acquire to time out")
	}

	r1()
	if _, ok := p.Acquire(context.Background()); !ok {
		t.Fatalf("expected acquire after release")
	}
}

func TestChanPool_ReleaseIsIdempotent(t *testing.T) {
	p := NewChanPool(1)
	r1, _ := p.Acquire(context.Background())
	r1()
	r1()
	if p.InUse() != 0 {
		t.Fatalf("expected 0 in use, got %d", p.InUse())
	}

	r2, ok := p.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected acquire after release")
	}
	defer r2()

	// release antigo não pode devolver a vaga de outro dono
	r1()
	if p.InUse() != 1 {
		t.Fatalf("expected slot still held, in use=%d", p.InUse())
	}
}

func TestChanPool_NonPositiveMaxBecomesOne(t *testing.T) {
	if got := NewChanPool(0).Cap(); got != 1 {
		t.Fatalf("expected cap 1, got %d", got)
	}
}
