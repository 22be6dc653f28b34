// ABOUTME: Built-in sample article the markdown editor starts with when no initial text is supplied.
// ABOUTME: Exercises the GFM features the deferred engine provides: task lists, code and tables.
package component

// SampleText is the editor's default document.
const SampleText = "# Welcome to the Markdown Editor! \U0001F4DD\n" +
	"\n" +
	"This component demonstrates **bundle splitting** with a heavy dependency.\n" +
	"\n" +
	"## Features Loaded:\n" +
	"- goldmark markdown engine\n" +
	"- GitHub Flavored Markdown\n" +
	"- Code blocks\n" +
	"- Tables, strikethrough, task lists\n" +
	"\n" +
	"## Try editing this text:\n" +
	"\n" +
	"### Task List\n" +
	"- [x] Load heavyweight markdown engine\n" +
	"- [x] Demonstrate bundle splitting\n" +
	"- [ ] Edit this text and see live preview!\n" +
	"\n" +
	"### Code Example\n" +
	"```go\n" +
	"demo := \"This shows how bundles can be split!\"\n" +
	"fmt.Println(demo)\n" +
	"```\n" +
	"\n" +
	"### Table\n" +
	"| Component | Bundle Size | Dependencies |\n" +
	"|-----------|-------------|--------------|\n" +
	"| Greeting | Small | Minimal |\n" +
	"| MarkdownEditor | **Large** | goldmark + extensions |\n" +
	"\n" +
	"**Edit the text on the left to see the live preview! →**"
