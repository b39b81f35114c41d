package infra

import (
	"container/heap"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"
)

// PriorityQueue devolve sempre o item de maior prioridade; empates saem na
// ordem de inserção (seq crescente). Não é segura para uso concorrente:
// quem a possui serializa o acesso.
type PriorityQueue[T any] struct {
	items queueHeap[T]
	seq   uint64
}

type queueItem[T any] struct {
	value    T
	priority domain.Priority
	seq      uint64
}

func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{}
}

// Push insere em O(log n). Um item re-inserido recebe nova seq, igual a uma inserção nova.
func (q *PriorityQueue[T]) Push(priority domain.Priority, v T) {
	q.seq++
	heap.Push(&q.items, queueItem[T]{value: v, priority: priority, seq: q.seq})
}

// Pop remove o próximo item. ok=false quando a fila está vazia.
func (q *PriorityQueue[T]) Pop() (v T, ok bool) {
	if len(q.items) == 0 {
		return v, false
	}
	it := heap.Pop(&q.items).(queueItem[T])
	return it.value, true
}

func (q *PriorityQueue[T]) Len() int { return len(q.items) }

// Drain esvazia a fila na ordem de saída.
func (q *PriorityQueue[T]) Drain() []T {
	out := make([]T, 0, len(q.items))
	for {
		v, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

type queueHeap[T any] []queueItem[T]

func (h queueHeap[T]) Len() int { return len(h) }

func (h queueHeap[T]) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h queueHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *queueHeap[T]) Push(x any) { *h = append(*h, x.(queueItem[T])) }

func (h *queueHeap[T]) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	var zero queueItem[T]
	old[n-1] = zero
	*h = old[:n-1]
	return it
}
