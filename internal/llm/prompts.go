package llm

import (
	"bytes"
	"strings"
	"text/template"
)

// systemPrompt frames every request as coming from the ordering assistant.
const systemPrompt = "You are an AI assistant for a food ordering app."

var (
	intentTemplate = template.Must(template.New("intent").Parse(
		`You are an AI assistant for a food ordering app. Your purpose is to interpret what user wants and user's intent.
Use the following guide to respond directly to the user without explaining different scenarios.
- If the user's input looks like an address (e.g., contains a street number, street name, city, state, and/or zip code), assume they are providing their delivery address.
- If the user's input mentions food ingredients or cuisine name, assume they are providing information to help select a suitable restaurant and dish.
- If the user's input mentions a monetary amount or budget (e.g., "50 bucks", "$20", "under 30$"), assume they are providing their budget for the order.
- If the user's input is not related to ordering food, clarify that your role is to assist with placing food delivery orders.
- If the user's just provides information, just explain what he's trying to do - don't suggest anything as the next step.
Use the following pieces of context to determine user's intent:
{{.Context}}
Reply in less than 50 words to what is the main user's intent based on this user's input:'{{.Question}}'
Answer:`))

	budgetTemplate = template.Must(template.New("budget").Parse(
		`Solve the problem of finding the maximum amount from the following input text.
If the amount is approximate or not clear enough, round up to the next number dividable by 10.
Reply shortly and to the point, without explaining the reasoning, in 5 words.
Input Text:
{{.InputText}}
Answer:`))

	rephraseTemplate = template.Must(template.New("rephrase").Parse(
		`You are an AI assistant for a food ordering app. Your purpose is help user make a purchase.
Rephrase in words in under 20 words the following response to user in a nicer way and more proffesional way:'{{.Answer}}'.
Repond in words with just with the rephrased single version.`))

	answerTemplate = template.Must(template.New("answer").Parse(
		`You are an AI assistant for a food ordering app. Your purpose is to help users place food delivery orders.
Answer the user's question briefly in less than 50 words. If the question is not related to ordering food, clarify that your role is to assist with placing food delivery orders.
Question:'{{.Question}}'
Answer:`))
)

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// IntentPrompt renders the intent-description prompt for an utterance and its session context.
func IntentPrompt(utterance, sessionContext string) (string, error) {
	return render(intentTemplate, struct{ Context, Question string }{sessionContext, utterance})
}

func BudgetPrompt(utterance string) (string, error) {
	return render(budgetTemplate, struct{ InputText string }{utterance})
}

func RephrasePrompt(text string) (string, error) {
	return render(rephraseTemplate, struct{ Answer string }{text})
}

func AnswerPrompt(utterance string) (string, error) {
	return render(answerTemplate, struct{ Question string }{utterance})
}
