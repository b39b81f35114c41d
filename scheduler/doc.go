// Package scheduler transforma um conjunto ilimitado de chamadas HTTP em uma
// execução com prioridade, teto de concorrência, intervalo mínimo entre
// despachos e retry com backoff.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (Failure, Decision, SlotPool, Pacer, StatsStore)
//   - application: casos de uso (admissão no gate, política de retry) sem net/http
//   - infra: implementações concretas (semáforo, x/time/rate, heap, backoff, stats)
//   - scheduler (este pacote): o laço de despacho, o Future e o executor HTTP
//
// Fluxo de um job:
//
//  1. Submit coloca o job na fila (estado Queued)
//  2. o laço espera o gate admitir (vaga + intervalo) e retira o job de maior prioridade
//  3. o thunk executa em uma goroutine própria; a vaga é devolvida ao terminar
//  4. em falha, a política decide: terminal (Failed) ou espera fora do gate e volta para a fila
//
// Cada Scheduler é independente; crie um por host remoto se precisar.
package scheduler
