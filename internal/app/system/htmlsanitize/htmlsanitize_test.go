package htmlsanitize_test

import (
	"html/template"
	"strings"
	"testing"

	"github.com/dalemusser/reviewhub/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	if got := htmlsanitize.Sanitize(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSanitize_KeepsFormatting(t *testing.T) {
	cases := []string{
		"<p><strong>Budget</strong> and <em>timeline</em></p>",
		"<ul><li>one</li><li>two</li></ul>",
		"<ol><li>first</li></ol>",
		"<h2>Scope</h2>",
		"<blockquote>quoted</blockquote>",
		"<pre><code>x := 1</code></pre>",
	}
	for _, in := range cases {
		if got := htmlsanitize.Sanitize(in); got != in {
			t.Errorf("Sanitize(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestSanitize_RemovesDangerousContent(t *testing.T) {
	cases := []struct {
		in      string
		mustNot string
	}{
		{"<p>Hi</p><script>alert('xss')</script>", "script"},
		{"<p>Hi</p><script>alert('xss')</script>", "alert"},
		{`<iframe src="https://evil.example"></iframe>`, "iframe"},
		{`<p onclick="steal()">click</p>`, "onclick"},
		{`<a href="javascript:alert(1)">x</a>`, "javascript:"},
		{`<img src="x" onerror="alert('xss')">`, "onerror"},
		{"<style>body{display:none}</style><p>ok</p>", "display"},
	}
	for _, tc := range cases {
		got := htmlsanitize.Sanitize(tc.in)
		if strings.Contains(got, tc.mustNot) {
			t.Errorf("Sanitize(%q) = %q, should not contain %q", tc.in, got, tc.mustNot)
		}
	}
}

func TestSanitize_LinksGetNoFollow(t *testing.T) {
	got := htmlsanitize.Sanitize(`<a href="https://example.com/brief.pdf">brief</a>`)
	if !strings.Contains(got, `href="https://example.com/brief.pdf"`) {
		t.Errorf("expected href to be kept, got %q", got)
	}
	if !strings.Contains(got, "nofollow") {
		t.Errorf("expected rel=nofollow, got %q", got)
	}
}

func TestSanitize_Tables(t *testing.T) {
	got := htmlsanitize.Sanitize(`<table><tr><td colspan="2">cell</td></tr></table>`)
	for _, want := range []string{"<table>", "<td", `colspan="2"`, "cell"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestSanitizeToHTML(t *testing.T) {
	got := htmlsanitize.SanitizeToHTML("<p>ok</p><script>x</script>")
	if got != template.HTML("<p>ok</p>") {
		t.Errorf("got %q", got)
	}
}

func TestStripTags(t *testing.T) {
	cases := map[string]string{
		"":                          "",
		"plain":                     "plain",
		"<p>Hello <b>there</b></p>": "Hello there",
		"<p>A &amp; B</p>":          "A & B",
		"  <em>padded</em>  ":       "padded",
		"<script>alert(1)</script>": "",
		"<p> </p>":                  "",
		"R&D < 5k":                  "R&D < 5k",
	}
	for in, want := range cases {
		if got := htmlsanitize.StripTags(in); got != want {
			t.Errorf("StripTags(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsPlainText(t *testing.T) {
	cases := map[string]bool{
		"":                     true,
		"just words":           true,
		"5 < 10":               true,
		"5 > 3":                true,
		"a < b and c > d":      true,
		"<p>para</p>":          false,
		"text with <br> break": false,
		"<!-- note -->":        false,
	}
	for in, want := range cases {
		if got := htmlsanitize.IsPlainText(in); got != want {
			t.Errorf("IsPlainText(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"Hello, World!":      "<p>Hello, World!</p>",
		"Line 1\nLine 2":     "<p>Line 1<br>Line 2</p>",
		"Line 1\r\nLine 2":   "<p>Line 1<br>Line 2</p>",
		"A & B":              "<p>A &amp; B</p>",
		"<script>x</script>": "<p>&lt;script&gt;x&lt;/script&gt;</p>",
	}
	for in, want := range cases {
		if got := htmlsanitize.PlainTextToHTML(in); got != want {
			t.Errorf("PlainTextToHTML(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrepareForDisplay(t *testing.T) {
	cases := map[string]template.HTML{
		"":                                      "",
		"Hello":                                 "<p>Hello</p>",
		"Line 1\nLine 2":                        "<p>Line 1<br>Line 2</p>",
		"<p>Hello</p>":                          "<p>Hello</p>",
		"<p>Hello</p><script>alert(1)</script>": "<p>Hello</p>",
	}
	for in, want := range cases {
		if got := htmlsanitize.PrepareForDisplay(in); got != want {
			t.Errorf("PrepareForDisplay(%q) = %q, want %q", in, got, want)
		}
	}
}
