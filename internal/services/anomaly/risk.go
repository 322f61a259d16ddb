package anomaly

import "FinAudit/internal/domain/models"

const maxRiskScore = 100

// RiskScore folds severity weights over the findings and clamps to [0,100].
func RiskScore(findings []models.Finding) int {
	score := 0
	for _, f := range findings {
		score += f.Severity.Weight()
	}
	if score > maxRiskScore {
		return maxRiskScore
	}
	if score < 0 {
		return 0
	}
	return score
}

// RiskLevelFor bands a risk score for display.
func RiskLevelFor(score int) models.RiskLevel {
	switch {
	case score > 60:
		return models.RiskLevelHigh
	case score > 30:
		return models.RiskLevelModerate
	default:
		return models.RiskLevelLow
	}
}

// Distribution counts findings per severity.
func Distribution(findings []models.Finding) models.SeverityDistribution {
	var d models.SeverityDistribution
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityCritical:
			d.Critical++
		case models.SeverityHigh:
			d.High++
		case models.SeverityMedium:
			d.Medium++
		default:
			d.Low++
		}
	}
	return d
}
