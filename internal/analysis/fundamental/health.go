package fundamental

import (
	"fmt"
)

// FinancialHealth scores the standalone robustness of one entity from its
// ratio set, without reference to peers.
type FinancialHealth struct {
	Score      float64            `json:"score"` // 0-100 composite score
	Grade      string             `json:"grade"` // "A+", "A", "B+", "B", "C", "D", or "" when nothing could be scored
	Strengths  []string           `json:"strengths,omitempty"`
	Weaknesses []string           `json:"weaknesses,omitempty"`
	Components map[string]float64 `json:"components"` // component score as a share of its weight, 0-100
}

// AssessFinancialHealth grades profitability, solvency, liquidity and
// efficiency. A component whose ratios are all undefined is left out of
// the composite rather than scored as zero.
func AssessFinancialHealth(s RatioSet) FinancialHealth {
	h := FinancialHealth{
		Components: make(map[string]float64),
	}

	totalScore := 0.0
	totalWeight := 0.0
	add := func(name string, score, weight float64) {
		if weight == 0 {
			return
		}
		h.Components[name] = score / weight * 100
		totalScore += score
		totalWeight += weight
	}

	// Profitability (35 points).
	profScore, profWeight := 0.0, 0.0
	if roe, ok := s.Get(ROE); ok {
		profWeight += 15
		switch {
		case roe > 0.20:
			profScore += 15
			h.Strengths = append(h.Strengths, fmt.Sprintf("High ROE: %.1f%%", roe*100))
		case roe > 0.12:
			profScore += 9
		case roe > 0:
			profScore += 4
		default:
			h.Weaknesses = append(h.Weaknesses, "Negative or zero ROE")
		}
	}
	if npm, ok := s.Get(NetProfitMargin); ok {
		profWeight += 10
		switch {
		case npm > 0.15:
			profScore += 10
			h.Strengths = append(h.Strengths, fmt.Sprintf("Strong net margin: %.1f%%", npm*100))
		case npm > 0.05:
			profScore += 6
		case npm > 0:
			profScore += 3
		default:
			h.Weaknesses = append(h.Weaknesses, "Loss-making at the net level")
		}
	}
	if gpm, ok := s.Get(GrossProfitMargin); ok {
		profWeight += 10
		switch {
		case gpm > 0.40:
			profScore += 10
		case gpm > 0.20:
			profScore += 6
		case gpm > 0:
			profScore += 3
		default:
			h.Weaknesses = append(h.Weaknesses, "Negative gross margin")
		}
	}
	add("profitability", profScore, profWeight)

	// Solvency (30 points).
	solvScore, solvWeight := 0.0, 0.0
	if de, ok := s.Get(DebtToEquity); ok {
		solvWeight += 15
		switch {
		case de < 0:
			h.Weaknesses = append(h.Weaknesses, "Negative shareholders' equity")
		case de < 0.5:
			solvScore += 15
			h.Strengths = append(h.Strengths, "Low debt-to-equity ratio")
		case de < 1:
			solvScore += 10
		case de < 2:
			solvScore += 5
		default:
			h.Weaknesses = append(h.Weaknesses, fmt.Sprintf("High D/E ratio: %.2f", de))
		}
	}
	if ic, ok := s.Get(InterestCoverage); ok {
		solvWeight += 15
		switch {
		case ic > 5:
			solvScore += 15
		case ic > 2:
			solvScore += 10
		case ic > 1:
			solvScore += 5
		default:
			solvScore += 1
			h.Weaknesses = append(h.Weaknesses, "Low interest coverage")
		}
	}
	add("solvency", solvScore, solvWeight)

	// Liquidity (20 points).
	liqScore, liqWeight := 0.0, 0.0
	if cr, ok := s.Get(CurrentRatio); ok {
		liqWeight += 12
		switch {
		case cr > 2:
			liqScore += 12
			h.Strengths = append(h.Strengths, "Strong current ratio")
		case cr > 1.5:
			liqScore += 9
		case cr > 1:
			liqScore += 5
		default:
			h.Weaknesses = append(h.Weaknesses, fmt.Sprintf("Weak current ratio: %.2f", cr))
		}
	}
	if qr, ok := s.Get(QuickRatio); ok {
		liqWeight += 8
		switch {
		case qr > 1:
			liqScore += 8
		case qr > 0.7:
			liqScore += 5
		default:
			h.Weaknesses = append(h.Weaknesses, fmt.Sprintf("Weak quick ratio: %.2f", qr))
		}
	}
	add("liquidity", liqScore, liqWeight)

	// Efficiency (15 points).
	effScore, effWeight := 0.0, 0.0
	if roa, ok := s.Get(ROA); ok {
		effWeight += 8
		switch {
		case roa > 0.10:
			effScore += 8
		case roa > 0.05:
			effScore += 5
		case roa > 0:
			effScore += 2
		}
	}
	if at, ok := s.Get(AssetTurnover); ok {
		effWeight += 7
		switch {
		case at > 1:
			effScore += 7
		case at > 0.5:
			effScore += 4
		default:
			effScore += 1
		}
	}
	add("efficiency", effScore, effWeight)

	if totalWeight == 0 {
		return h
	}
	h.Score = totalScore / totalWeight * 100

	// Grade.
	switch {
	case h.Score >= 85:
		h.Grade = "A+"
	case h.Score >= 70:
		h.Grade = "A"
	case h.Score >= 55:
		h.Grade = "B+"
	case h.Score >= 40:
		h.Grade = "B"
	case h.Score >= 25:
		h.Grade = "C"
	default:
		h.Grade = "D"
	}

	return h
}
