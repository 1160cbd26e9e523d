package types

// QualityCategory is the discrete quality label assigned from the composite
// score. The set is closed and ordered: Premium > Excellent > Good > Fair > Poor.
type QualityCategory string

const (
	CategoryPremium   QualityCategory = "Premium"
	CategoryExcellent QualityCategory = "Excellent"
	CategoryGood      QualityCategory = "Good"
	CategoryFair      QualityCategory = "Fair"
	CategoryPoor      QualityCategory = "Poor"
)

// Rank returns the ordering position of the category, highest first
// (Premium=0, Poor=4). Unknown categories rank below Poor.
func (c QualityCategory) Rank() int {
	switch c {
	case CategoryPremium:
		return 0
	case CategoryExcellent:
		return 1
	case CategoryGood:
		return 2
	case CategoryFair:
		return 3
	case CategoryPoor:
		return 4
	default:
		return 5
	}
}

// IsValid reports whether the category is one of the closed set.
func (c QualityCategory) IsValid() bool {
	return c.Rank() < 5
}

// ComplianceStatus is the three-tier regulatory verdict derived from the
// four compliance flags, never from the score.
type ComplianceStatus string

const (
	StatusCompliant    ComplianceStatus = "Compliant"
	StatusWarning      ComplianceStatus = "Warning"
	StatusNonCompliant ComplianceStatus = "Non-Compliant"
)

// IsValid reports whether the status is one of the closed set.
func (s ComplianceStatus) IsValid() bool {
	switch s {
	case StatusCompliant, StatusWarning, StatusNonCompliant:
		return true
	default:
		return false
	}
}
