// Package api expõe a varredura de portfólio por HTTP.
//
// As rotas ficam atrás de dois middlewares de entrada: um token-bucket por
// cliente (x/time/rate) e um teto de requisições simultâneas. Eles protegem o
// servidor; a cota do GitHub é protegida pelo agendador.
package api
