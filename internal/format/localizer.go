package format

import (
	"strings"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

// qualityPhrases maps every supported display phrase to its canonical token.
// Keys are matched case-insensitively.
var qualityPhrases = map[string]domain.Quality{
	// English
	"Best":           domain.QualityBest,
	"Lowest":         domain.QualityLowest,
	"High Quality":   domain.QualityHigh,
	"Medium Quality": domain.QualityMedium,
	"Low Quality":    domain.QualityLow,

	// German
	"Beste":             domain.QualityBest,
	"Niedrigste":        domain.QualityLowest,
	"Hohe Qualität":     domain.QualityHigh,
	"Mittlere Qualität": domain.QualityMedium,
	"Niedrige Qualität": domain.QualityLow,

	// Spanish
	"Mejor":         domain.QualityBest,
	"Más baja":      domain.QualityLowest,
	"Alta calidad":  domain.QualityHigh,
	"Calidad media": domain.QualityMedium,
	"Baja calidad":  domain.QualityLow,

	// French
	"Meilleure":       domain.QualityBest,
	"Plus faible":     domain.QualityLowest,
	"Haute qualité":   domain.QualityHigh,
	"Qualité moyenne": domain.QualityMedium,
	"Basse qualité":   domain.QualityLow,
}

var canonicalIndex = buildCanonicalIndex()

func buildCanonicalIndex() map[string]domain.Quality {
	index := make(map[string]domain.Quality, len(qualityPhrases)+len(domain.VideoQualities)+len(domain.AudioQualities))
	for phrase, q := range qualityPhrases {
		index[strings.ToLower(phrase)] = q
	}
	for _, q := range domain.VideoQualities {
		index[strings.ToLower(string(q))] = q
	}
	for _, q := range domain.AudioQualities {
		index[strings.ToLower(string(q))] = q
	}
	return index
}

// Canonicalize maps a possibly translated quality label to its canonical
// token. Unknown labels are returned unchanged so Resolve can apply its
// fallback.
func Canonicalize(label string) domain.Quality {
	if q, ok := canonicalIndex[strings.ToLower(strings.TrimSpace(label))]; ok {
		return q
	}
	return domain.Quality(label)
}
