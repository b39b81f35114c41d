// Package portfolio varre os repositórios públicos de uma conta do GitHub e
// devolve os que publicam um arquivo de configuração de portfólio.
//
// Todas as chamadas à API passam pelo agendador: a listagem com prioridade
// CRITICAL e cada sonda de configuração com prioridade derivada da data de
// atualização do repositório.
package portfolio
