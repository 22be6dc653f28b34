// ABOUTME: Document entity and the typed props passed from page actions into components.
// ABOUTME: Props carry validation tags checked before a component is mounted.
package content

import "time"

// Document is the in-memory text a heavy editor instance works on.
type Document struct {
	Text         string
	Title        string
	Author       string
	LastModified time.Time
}

// EditorProps is the view-model handed to the markdown editor component.
type EditorProps struct {
	InitialText  string    `json:"initialText" validate:"required"`
	Title        string    `json:"title" validate:"required"`
	Author       string    `json:"author"`
	LastModified time.Time `json:"lastModified" validate:"required"`
}

// Document builds the starting Document for one page view.
func (p EditorProps) Document() Document {
	return Document{
		Text:         p.InitialText,
		Title:        p.Title,
		Author:       p.Author,
		LastModified: p.LastModified,
	}
}

// GreetingProps is the view-model handed to the lightweight greeting components.
type GreetingProps struct {
	Name string `json:"name" validate:"max=200"`
}
