package domain

import "context"

// SlotPool representa um recurso com capacidade finita (requisições em voo).
//
// A semântica é: Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar.
// Ao adquirir, retorna uma função de release que deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	InUse() int
	Cap() int
}

// Pacer garante o intervalo mínimo entre dois despachos consecutivos.
//
// Wait retorna quando o próximo despacho pode acontecer, ou erro se o ctx encerrar.
type Pacer interface {
	Wait(ctx context.Context) error
}
