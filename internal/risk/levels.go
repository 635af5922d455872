package risk

import "github.com/Abdr007/prism-ai-sub001/internal/domain/models"

// LevelFor maps a rounded risk score to its alerting band. Boundary values
// belong to the higher band: exactly 60 is high, 59 is elevated.
func LevelFor(score int) models.RiskLevel {
	switch {
	case score >= 80:
		return models.RiskCritical
	case score >= 60:
		return models.RiskHigh
	case score >= 40:
		return models.RiskElevated
	case score >= 20:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}
