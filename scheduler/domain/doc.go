// Package domain define contratos e tipos de domínio do agendador de requisições.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar a política de
// retry, o controle de admissão e a fila de prioridade dos detalhes de
// infraestrutura.
package domain
