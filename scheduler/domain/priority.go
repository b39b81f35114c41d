package domain

// Priority ordena jobs na fila: valor maior sai primeiro.
type Priority int

// Faixas reconhecidas. O agendador não impõe nenhuma delas; quem submete escolhe.
const (
	PriorityDefault  Priority = 0
	PriorityRetry    Priority = 1 // declarada, mas retries mantêm a prioridade original
	PriorityLow      Priority = 2
	PriorityMedium   Priority = 5
	PriorityHigh     Priority = 8
	PriorityCritical Priority = 10
)
