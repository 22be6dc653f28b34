// ABOUTME: File-backed content provider that loads the editor's initial article per page view.
// ABOUTME: Never fails: a missing or empty source yields a fixed placeholder and one logged warning.
package content

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FallbackText is served when the content source cannot be read.
const FallbackText = "# Demo content not available\n\nPlease check the content file exists."

const (
	// DefaultTitle is used when the source has no front matter title.
	DefaultTitle = "Split View Demo Article"
	// DefaultAuthor is used when the source has no front matter author.
	DefaultAuthor = "Demo System"
)

// Provider supplies editor props. Implementations never return an empty InitialText.
type Provider interface {
	Load(ctx context.Context) EditorProps
}

// FileProvider reads a markdown file on every Load.
type FileProvider struct {
	path   string
	title  string
	author string
	logger *zap.Logger
	now    func() time.Time
}

// FileProviderOption configures a FileProvider.
type FileProviderOption func(*FileProvider)

// WithDefaults overrides the title and author used when the file has no front matter.
func WithDefaults(title, author string) FileProviderOption {
	return func(p *FileProvider) {
		if title != "" {
			p.title = title
		}
		if author != "" {
			p.author = author
		}
	}
}

// WithLogger sets the logger that receives unavailability warnings.
func WithLogger(logger *zap.Logger) FileProviderOption {
	return func(p *FileProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) FileProviderOption {
	return func(p *FileProvider) {
		p.now = now
	}
}

// NewFileProvider returns a provider reading path.
func NewFileProvider(path string, opts ...FileProviderOption) *FileProvider {
	p := &FileProvider{
		path:   path,
		title:  DefaultTitle,
		author: DefaultAuthor,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Path returns the file this provider reads.
func (p *FileProvider) Path() string {
	return p.path
}

// frontMatter is the optional YAML header of a content file.
type frontMatter struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
}

// Load reads the content file and returns props for the editor.
func (p *FileProvider) Load(ctx context.Context) EditorProps {
	props := EditorProps{
		Title:        p.title,
		Author:       p.author,
		LastModified: p.now(),
	}

	raw, err := os.ReadFile(p.path)
	if err != nil {
		p.logger.Warn("content source unavailable, using placeholder",
			zap.String("component", "content"),
			zap.String("path", p.path),
			zap.Error(err),
		)
		props.InitialText = FallbackText
		return props
	}

	if info, statErr := os.Stat(p.path); statErr == nil {
		props.LastModified = info.ModTime()
	}

	body, meta, ok := splitFrontMatter(raw)
	if ok {
		if meta.Title != "" {
			props.Title = meta.Title
		}
		if meta.Author != "" {
			props.Author = meta.Author
		}
	}

	if strings.TrimSpace(string(body)) == "" {
		p.logger.Warn("content source empty, using placeholder",
			zap.String("component", "content"),
			zap.String("path", p.path),
		)
		props.InitialText = FallbackText
		return props
	}

	props.InitialText = string(body)
	return props
}

// splitFrontMatter separates a leading YAML block from the markdown body.
// Anything that does not parse cleanly is left in the body.
func splitFrontMatter(raw []byte) ([]byte, frontMatter, bool) {
	var meta frontMatter

	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return raw, meta, false
	}

	header, body, found := strings.Cut(text[len("---\n"):], "\n---\n")
	if !found {
		// A closing fence on the last line has no trailing newline.
		trimmed := strings.TrimSuffix(text[len("---\n"):], "\n---")
		if trimmed == text[len("---\n"):] {
			return raw, meta, false
		}
		header, body = trimmed, ""
	}

	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return raw, frontMatter{}, false
	}
	return []byte(body), meta, true
}
