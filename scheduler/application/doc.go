// Package application contém os casos de uso do agendador: admissão no gate
// (vaga de concorrência + intervalo mínimo) e a política de retry.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: RetryPolicy.Decide(err, attempt) retorna uma Decision (terminal ou retry-after).
package application
