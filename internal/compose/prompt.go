// Package compose turns a recommendation and its context into the short
// public message shown on the billboard.
package compose

import (
	"fmt"
	"math"
	"strings"
)

// MaxWords is the length limit given to the model.
const MaxWords = 20

// PromptInput is the context embedded in the generation prompt.
type PromptInput struct {
	Location       string
	Weather        string
	Temperature    float64
	TemperatureSym string
	Neighborhoods  []string
	Highlights     []string
	Recommendation string
	Structured     bool
}

// NeighborhoodInfo renders the zip table entry as prompt text. It is empty
// when no neighborhoods are known.
func NeighborhoodInfo(neighborhoods, highlights []string) string {
	if len(neighborhoods) == 0 {
		return ""
	}
	info := fmt.Sprintf("Neighborhoods: %s.", strings.Join(neighborhoods, ", "))
	if len(highlights) > 0 {
		info += fmt.Sprintf(" Highlights: %s.", strings.Join(highlights, ", "))
	}
	return info
}

func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a smart billboard. Create a catchy, friendly sentence less than %d words for people passing by, using this info: ", MaxWords)

	location := in.Location
	if location == "" {
		location = "this area"
	}
	fmt.Fprintf(&b, "location: %s, weather: %s", location, in.Weather)
	if in.TemperatureSym != "" {
		fmt.Fprintf(&b, ", %d%s", int(math.Round(in.Temperature)), in.TemperatureSym)
	}
	b.WriteString(", ")

	if info := NeighborhoodInfo(in.Neighborhoods, in.Highlights); info != "" {
		b.WriteString(info)
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "Recommend the utility program: %s.", in.Recommendation)

	if in.Structured {
		b.WriteString(" Answer in exactly two lines. The first line starts with \"Headline:\" followed by at most 6 words. The second line starts with \"Message:\" followed by the sentence.")
	}
	return b.String()
}

// amendPrompt asks the model to avoid a term found in its previous answer.
func amendPrompt(prompt, term string) string {
	return fmt.Sprintf("%s Your previous answer mentioned %q, which is not suitable for a public billboard. Write a different message that avoids that topic entirely.", prompt, term)
}
