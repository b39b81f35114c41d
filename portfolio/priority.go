package portfolio

import (
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"
)

const day = 24 * time.Hour

const (
	freshWindow  = 30 * day
	recentWindow = 180 * day
)

// RepoPriority mede o frescor do repositório: atualizado há menos de 30 dias é
// HIGH, há menos de 180 é MEDIUM, o resto (ou sem data legível) é LOW.
func RepoPriority(updatedAt string, now time.Time) domain.Priority {
	if updatedAt == "" {
		return domain.PriorityLow
	}
	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return domain.PriorityLow
	}
	age := now.Sub(t)
	switch {
	case age < freshWindow:
		return domain.PriorityHigh
	case age < recentWindow:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}
