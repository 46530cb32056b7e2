package port

// TokenCounter estimates the token cost of a piece of text.
type TokenCounter interface {
	Count(text string) int
}
