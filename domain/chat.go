package domain

type ChatID string

// Chat groups a member list under an identifier. Members are user IDs.
type Chat struct {
	ID        ChatID
	Name      string
	GroupChat bool
	Members   []string
}

// IsMember reports whether userID belongs to the chat.
func (c Chat) IsMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}
