package intent

import (
	"fmt"
	"strings"

	"github.com/hrygo/wabot/plugin/ai/session"
)

// historyWindow is the number of recent messages shown to the model.
const historyWindow = 5

// Taxonomy is the fixed module/submodule/intent hierarchy.
const Taxonomy = `The hierarchy is:
- Module: Base
  - Submodule: Main | Intents: Greet, Ask, Other
  - Submodule: Settings | Intents: Create whitelist, Read whitelist, Delete whitelist
- Module: Meal
  - Submodule: Main | Intents: Other`

// ClassificationPrompt is the prompt template for intent classification.
// Arguments: taxonomy, module, submodule, history transcript, message.
const ClassificationPrompt = `Analyze the following message for a personal assistant bot.
%s

User is CURRENTLY in: Module=%s, Submodule=%s

Instructions:
1. Decide the appropriate Module, Submodule, and Intent.
2. Generate a friendly, helpful reply.
3. If the user refers to values from previous messages (e.g., 'the last two numbers', 'the email I sent'), EXTRACT those values from the 'Conversation History'.
4. Action mapping for Settings (REQUIRED if intent involves changing data):
   - 'Create whitelist' -> {"type": "add_whitelist", "value": "phone number"}
   - 'Delete whitelist' -> {"type": "remove_whitelist", "value": "phone number"}
   - If they want to remove MULTIPLE things, include MULTIPLE action objects in the list.

Reply with ONLY a JSON object:
{
  "module": "Base" or "Meal",
  "submodule": "Main" or "Settings",
  "intent": "specified intent",
  "reply": "Friendly response",
  "actions": [{"type": "add_whitelist", "value": "628..."}, ...] (List, can be empty)
}

Conversation History:
%s

New Message: %s`

// BuildPrompt renders the classification prompt for a message.
func BuildPrompt(sess *session.Session, text string) string {
	return fmt.Sprintf(ClassificationPrompt, Taxonomy, sess.ActiveModule, sess.ActiveSubmodule, formatHistory(sess.Recent(historyWindow)), text)
}

func formatHistory(history []session.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		speaker := "Bot"
		if m.Role == session.RoleUser {
			speaker = "User"
		}
		lines = append(lines, speaker+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
