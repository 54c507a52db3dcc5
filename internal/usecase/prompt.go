package usecase

import (
	"strings"

	"cosmetics-assistant/internal/domain"
)

const (
	maxResponseTokens = 1000
	samplingTemp      = 0.7

	analyzeUserPrefix = "Analyze this cosmetic ingredient: "
)

func buildAssistantMessages(question string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "system", Content: buildAssistantPrompt()},
		{Role: "user", Content: question},
	}
}

func buildAnalysisMessages(name string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "system", Content: buildAnalysisPrompt()},
		{Role: "user", Content: analyzeUserPrefix + name},
	}
}

func buildScanMessages(imageURL string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "user", Content: scanInstruction(), ImageURL: imageURL},
	}
}

func buildAssistantPrompt() string {
	return strings.Join([]string{
		"Role:",
		"You are a knowledgeable cosmetics assistant specializing in skincare, makeup, and beauty products.",
		"",
		"Expertise:",
		"- Ingredient analysis and safety",
		"- Product recommendations based on skin type and concerns",
		"- Skincare routines and best practices",
		"- Makeup application techniques",
		"",
		"Behavior Rules:",
		"1) Provide detailed, accurate information.",
		"2) Include safety considerations.",
		"3) Suggest alternatives when appropriate.",
		"4) Explain your reasoning in clear, professional language.",
		"",
		"Output Contract:",
		"Start with a clear answer to the question, then add these lines:",
		"Status: one of safe, caution, avoid",
		"Explanation: the reasoning behind the status on a single line",
		"Recommendations: additional recommendations if relevant",
		"",
		"Status Categories:",
		statusCategories(),
	}, "\n")
}

func buildAnalysisPrompt() string {
	return strings.Join([]string{
		"Role:",
		"You are a cosmetic ingredient analysis expert. Analyze cosmetic ingredients for safety and efficacy.",
		"Base your analysis on scientific research and regulatory guidelines.",
		"",
		"Output Contract:",
		"Answer with exactly these lines, one key per line, in this format:",
		"Name: common name of the ingredient",
		"Scientific Name: INCI or chemical name",
		"Description: brief description of what it is and its purpose",
		"Status: one of safe, caution, avoid",
		"Common Uses: comma-separated list of common uses in cosmetics",
		"Safety Notes: detailed safety information on a single line",
		"Alternatives: comma-separated safe alternatives if status is caution or avoid",
		"",
		"Status Categories:",
		statusCategories(),
	}, "\n")
}

func scanInstruction() string {
	return "Analyze this image of cosmetic ingredients. " +
		"List all ingredients you can identify and provide a safety assessment for each one."
}

func statusCategories() string {
	return strings.Join([]string{
		"- safe: generally safe for most users",
		"- caution: may cause issues for some users",
		"- avoid: not recommended due to potential risks",
	}, "\n")
}
