package widget

// QuickAction is a predefined shortcut message shown under the greeting.
type QuickAction struct {
	Icon    string `json:"icon"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// SeedQuickActions provides the shortcuts rendered in a fresh panel.
func SeedQuickActions() []QuickAction {
	return []QuickAction{
		{Icon: "💡", Label: "Technical Skills", Message: "What are your key technical skills?"},
		{Icon: "🚀", Label: "Projects", Message: "Tell me about your projects"},
		{Icon: "📬", Label: "Contact Info", Message: "How can I contact you?"},
	}
}
