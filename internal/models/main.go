// Package models defines the core data structures for users, notes and their attachments.
package models

// User represents a registered account as it is persisted.
type User struct {
	// ID is the numeric identifier, monotonic across registrations.
	ID int64 `json:"id"`
	// Username is the unique login name; it also names the user's note file.
	Username string `json:"username"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"passwordHash"`
	// DisplayName is the human-readable name shown by clients.
	DisplayName string `json:"displayName"`
	// CreatedAt is the registration time in epoch milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// Profile returns the public projection of the user.
func (u User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}

// UserProfile is the part of a User that is safe to return to clients.
type UserProfile struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// Note is a single user record.
type Note struct {
	// ID is client-supplied or derived from the creation time.
	ID string `json:"id"`
	// Title is the note headline.
	Title string `json:"title"`
	// Text is the note body.
	Text string `json:"text"`
	// Tags keeps the order and spelling the client sent.
	Tags []string `json:"tags"`
	// Timestamp is the creation time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
	// LastModified is the last modification time in epoch milliseconds.
	LastModified int64 `json:"lastModified"`
	// User is the owning username.
	User string `json:"user"`
	// Location is optional and encoded as null when absent.
	Location *Location `json:"location"`
	// Media lists the attachments uploaded with the note.
	Media []Media `json:"media"`
}

// Location describes where a note was taken.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// MediaType defines the set of valid attachment kinds.
type MediaType string

const (
	// MediaImage is an uploaded picture.
	MediaImage MediaType = "image"
	// MediaAudio is an uploaded recording.
	MediaAudio MediaType = "audio"
)

// Media is an attachment owned by a Note.
type Media struct {
	// Type is either "image" or "audio".
	Type MediaType `json:"type"`
	// URL is a path rooted at /media/.
	URL string `json:"url"`
	// Caption is an optional image description.
	Caption string `json:"caption,omitempty"`
	// Transcript is an optional text rendition of an audio attachment.
	Transcript string `json:"transcript,omitempty"`
	// Duration is the audio length in seconds; zero when unknown.
	Duration float64 `json:"duration,omitempty"`
}

// TagStats maps a tag to the number of times it occurs across a user's notes.
type TagStats map[string]int

// RawFile is the on-disk view of a user's note store.
type RawFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
}
