package models

type Intent string

// Declaration order matters: classification ties go to the earliest intent.
const (
	IntentGeneralQuestion    Intent = "GENERAL_QUESTION"
	IntentProvideAddress     Intent = "PROVIDE_ADDRESS"
	IntentProvidePreferences Intent = "PROVIDE_PREFERENCES"
	IntentProvideBudget      Intent = "PROVIDE_BUDGET"
)

// Intents lists the taxonomy in declaration order.
var Intents = []Intent{
	IntentGeneralQuestion,
	IntentProvideAddress,
	IntentProvidePreferences,
	IntentProvideBudget,
}

var intentDescriptions = map[Intent]string{
	IntentGeneralQuestion:    "The user is asking a general question not related to ordering food.",
	IntentProvideAddress:     "The user is providing their delivery address or location for their food order.",
	IntentProvidePreferences: "The user is providing their preferred cuisine, type of restaurants or ingredients for their order.",
	IntentProvideBudget:      "The user is specifying a exact or approximate budget limit or numerical amount they are willing to pay or spend on their food order.",
}

// Description is the canonical text the intent is embedded from.
func (i Intent) Description() string {
	return intentDescriptions[i]
}

func (i Intent) Valid() bool {
	_, ok := intentDescriptions[i]
	return ok
}
