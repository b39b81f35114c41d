// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - ChanPool: semáforo simples para o teto de requisições em voo
//   - Pacer: intervalo mínimo entre despachos usando golang.org/x/time/rate
//   - PriorityQueue: heap com desempate FIFO por número de sequência
//   - Backoff: exponencial com full jitter e fonte de aleatoriedade injetável
//   - MemoryStatsStore / RedisStatsStore: contadores de despacho
package infra
