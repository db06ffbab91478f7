package classify

import "fmt"

// promptTemplate is rendered with the subject and then the sender. The rendered
// text is also the cache key, so any change to it invalidates every cached entry.
const promptTemplate = `Classify the following email. Reply with a single minified JSON object and nothing else.
The object must have exactly the keys "Category", "Priority" and "RequiresResponse".
Category is one of "Work", "School", "Shopping" or "Uncategorized".
Priority is one of "Important" or "Normal".
RequiresResponse is one of "Yes" or "No".

Example:
Subject: "Your order has shipped"
Sender: "orders@shop.example"
Answer: {"Category":"Shopping","Priority":"Normal","RequiresResponse":"No"}

Subject: "%s"
Sender: "%s"
Answer:`

// BuildPrompt renders the classification prompt for one message. The
// fields are interpolated verbatim, quotes included.
func BuildPrompt(subject, sender string) string {
	return fmt.Sprintf(promptTemplate, subject, sender)
}
