package intent

import (
	"strings"

	"food-ordering-agent/internal/models"
)

const (
	preferenceProvided = "User preference is provided."
	preferenceMissing  = "User hasn't provided yet any food preference, so I don't know what user wants to order."
	addressProvided    = "User address is provided."
	addressMissing     = "User hasn't provided yet any address, so I don't know where to deliver food."
	budgetProvided     = "User budget is provided."
	budgetMissing      = "User hasn't provided yet budget, so I don't know the order budget."
	budgetLikely       = "Most likely the user's intent will be to provide budget or limit to the order, any number should be considered as order limit."
)

// SessionContext describes what the session already holds, one line per fact after a leading newline.
func SessionContext(s *models.Session) string {
	var b strings.Builder
	b.WriteString("\n")

	line := func(text string) {
		b.WriteString(text)
		b.WriteString("\n")
	}

	if s.HasPreferences() {
		line(preferenceProvided)
	} else {
		line(preferenceMissing)
	}

	if s.HasAddress() {
		line(addressProvided)
	} else {
		line(addressMissing)
	}

	if s.HasBudget() {
		line(budgetProvided)
	} else {
		line(budgetMissing)
		if s.HasPreferences() && s.HasAddress() {
			line(budgetLikely)
		}
	}
	return b.String()
}
