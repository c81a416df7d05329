package conversation

import "strings"

// Guardrails classifies a raw user utterance before any slot handling
// runs. Implementations are plain boolean predicates; the orchestrator
// only cares about the two outcomes, not how they were reached.
type Guardrails interface {
	LooksLikeFraudOrExfil(text string) bool
	LooksLikeInjection(text string) bool
}

// KeywordGuardrails is the built-in heuristic implementation. A model
// backed classifier can replace it behind the same interface.
type KeywordGuardrails struct{}

func NewKeywordGuardrails() KeywordGuardrails { return KeywordGuardrails{} }

var fraudPhrases = []string{
	"without returning",
	"without a return",
	"refund without",
	"fake receipt",
	"chargeback scam",
	"bypass the policy",
	"bypass policy",
	"other customers",
	"customer data",
	"everyone's order",
	"all orders in the system",
	"credit card numbers",
}

var injectionPhrases = []string{
	"ignore previous instructions",
	"ignore all previous",
	"disregard your instructions",
	"you are now",
	"system prompt",
	"developer mode",
	"reveal your instructions",
	"print your prompt",
}

func (KeywordGuardrails) LooksLikeFraudOrExfil(text string) bool {
	return matchesAny(text, fraudPhrases)
}

func (KeywordGuardrails) LooksLikeInjection(text string) bool {
	return matchesAny(text, injectionPhrases)
}

func matchesAny(text string, phrases []string) bool {
	t := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}
