package profile

// Profile describes the portfolio owner the assistant answers for.
type Profile struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Headline  string   `json:"headline"`
	Tone      string   `json:"tone"`
	Summary   string   `json:"summary,omitempty"`
	Skills    []string `json:"skills,omitempty"`
	Projects  []string `json:"projects,omitempty"`
	Contact   string   `json:"contact,omitempty"`
	Guardrail string   `json:"guardrail,omitempty"` // 超出资料范围时的回复方式
}

// DefaultID is the profile served when none is configured.
const DefaultID = "shashi"

// Seed provides the built-in portfolio profile.
func Seed() []Profile {
	return []Profile{
		{
			ID:       DefaultID,
			Name:     "Shashi Bhushan Jha",
			Headline: "M.Tech Electrical Engineering | IPR Professional",
			Tone:     "friendly, concise, professional",
			Summary:  "Electrical engineer working in intellectual property, with a background in patent analysis and technical research.",
			Skills: []string{
				"Patent search and prior-art analysis",
				"Patent drafting and claim mapping",
				"Power systems and electrical machines",
				"Technical writing and research",
			},
			Projects: []string{
				"Freedom-to-operate studies for electrical and electronics clients",
				"Landscape reports on emerging energy technologies",
				"Personal portfolio site with an AI chat assistant",
			},
			Contact:   "the contact form on the portfolio site",
			Guardrail: "If a question is outside this profile, say you don't know and suggest using the contact form.",
		},
	}
}
