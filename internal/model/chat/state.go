package chat

// State captures the per-instance session flags. Both reset on re-initialization.
type State struct {
	IsOpen    bool `json:"isOpen"`
	IsLoading bool `json:"isLoading"`
}
