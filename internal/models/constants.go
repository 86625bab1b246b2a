package models

const (
	// InputTypeDocument and InputTypeQuery are the embedding input-type
	// discriminators. Models with an asymmetric embedding space place
	// documents and queries differently depending on this value.
	InputTypeDocument = "search_document"
	InputTypeQuery    = "search_query"
)

var (
	// PromptTemplate assembles the grounded prompt: retrieved chunk texts
	// (blank-line separated, relevance order), the rendered conversation
	// history, and the verbatim question. The task instruction enforces a
	// closed-book policy; compliance is up to the generative model.
	PromptTemplate = `# Retrieved Information
%s

# Conversation History
%s

# Current Query
User: %s

# Task Instruction
Respond to the current query using only the retrieved information and conversation history provided above. Follow these guidelines strictly:

1. If the retrieved information directly answers the query, use it to formulate your response.
2. If the retrieved information is not relevant or insufficient to answer the query, respond with: "I'm sorry, but I don't have enough information in the provided context to answer this question accurately."
3. Do not use any external knowledge or information not present in this prompt.
`

	// SystemInstruction is submitted alongside every generation request.
	SystemInstruction = `You are an AI assistant tasked with answering questions based solely on the provided information and conversation history.
Do not use any knowledge beyond what is explicitly provided in this prompt. If the information given is insufficient
to answer the query, clearly state this fact. You are always direct and concise in your responses.
`
)
