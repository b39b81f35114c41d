// Package cache guarda o resultado de uma varredura por chave, com idade
// máxima decidida na leitura. Entradas vencidas são removidas quando lidas.
package cache
