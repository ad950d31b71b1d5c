package chat

// Request is the body of POST {endpoint}/chat.
type Request struct {
	Message             string  `json:"message"`
	ConversationHistory []Entry `json:"conversation_history"`
}

// Response is the success body returned by the chat API.
type Response struct {
	Response string `json:"response"`
}
