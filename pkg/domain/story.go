package domain

// StoryDocument is the structured output of story generation.
type StoryDocument struct {
	UserStories []UserStory `json:"userStories" mapstructure:"userStories"`
}

// UserStory describes one piece of user-facing functionality.
type UserStory struct {
	ID                 string          `json:"id" mapstructure:"id"`
	Title              string          `json:"title" mapstructure:"title"`
	Description        string          `json:"description" mapstructure:"description"`
	AcceptanceCriteria []string        `json:"acceptanceCriteria" mapstructure:"acceptanceCriteria"`
	RelatedScreens     []RelatedScreen `json:"relatedScreens" mapstructure:"relatedScreens"`
}

// RelatedScreen references a frame of the flow.
// Link is filled in after generation; the API never sees it.
type RelatedScreen struct {
	Name string `json:"name" mapstructure:"name"`
	ID   string `json:"id" mapstructure:"id"`
	Link string `json:"link" mapstructure:"link"`
}
