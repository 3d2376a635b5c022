package webpage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

const articlePage = `<!doctype html>
<html>
<head>
  <title>Fallback title</title>
  <meta property="og:title" content="Understanding RRF">
  <meta name="description" content="How reciprocal rank fusion merges lists.">
  <meta name="author" content="Ada Lovelace">
  <meta property="og:image" content="/img/rrf.png">
  <meta property="article:published_time" content="2024-03-05T08:30:00+01:00">
  <link rel="canonical" href="https://example.com/posts/rrf">
  <script>var tracking = true;</script>
</head>
<body>
  <nav><a href="/">Home</a> | <a href="/about">About</a></nav>
  <article>
    <h1>Understanding RRF</h1>
    <p>Reciprocal rank fusion is <strong>simple</strong>.</p>
    <p>Read the <a href="/docs/fusion">fusion docs</a>.</p>
  </article>
  <footer>Copyright</footer>
</body>
</html>`

func TestExtractor_Extract(t *testing.T) {
	page := &domain.FetchedPage{
		URL:         "https://example.com/posts/rrf?utm_source=x",
		FinalURL:    "https://example.com/posts/rrf?utm_source=x",
		ContentType: "text/html",
		Body:        []byte(articlePage),
	}

	got, err := New().Extract(context.Background(), page)

	require.NoError(t, err)
	assert.Equal(t, "Understanding RRF", got.Title)
	assert.Equal(t, "How reciprocal rank fusion merges lists.", got.Description)
	assert.Equal(t, "Ada Lovelace", got.Author)
	assert.Equal(t, "https://example.com/img/rrf.png", got.ImageURL)
	assert.Equal(t, "https://example.com/posts/rrf", got.CanonicalURL)
	require.NotNil(t, got.PublishedAt)
	assert.Equal(t, 7, got.PublishedAt.Hour())

	assert.Contains(t, got.Content, "Understanding RRF")
	assert.Contains(t, got.Content, "**simple**")
	assert.Contains(t, got.Content, "https://example.com/docs/fusion")
	assert.NotContains(t, got.Content, "tracking")
	assert.NotContains(t, got.Content, "About")
	assert.NotContains(t, got.Content, "Copyright")
}

func TestExtractor_FallbackTitleAndBody(t *testing.T) {
	page := &domain.FetchedPage{
		URL:         "https://example.com/",
		ContentType: "text/html",
		Body: []byte(`<html><head><title>  Plain &amp; simple </title></head>
<body><p>First paragraph.</p><p>Second paragraph.</p>
<time datetime="2023-12-01">Dec 1</time></body></html>`),
	}

	got, err := New().Extract(context.Background(), page)

	require.NoError(t, err)
	assert.Equal(t, "Plain & simple", got.Title)
	assert.Empty(t, got.Description)
	assert.Empty(t, got.CanonicalURL)
	assert.Contains(t, got.Content, "First paragraph.")
	assert.Contains(t, got.Content, "Second paragraph.")
	require.NotNil(t, got.PublishedAt)
	assert.Equal(t, 2023, got.PublishedAt.Year())
}

func TestExtractor_HeadingTitle(t *testing.T) {
	page := &domain.FetchedPage{
		URL:  "https://example.com/",
		Body: []byte(`<html><body><main><h1>Only a heading</h1><p>Body text</p></main></body></html>`),
	}

	got, err := New().Extract(context.Background(), page)

	require.NoError(t, err)
	assert.Equal(t, "Only a heading", got.Title)
	assert.Nil(t, got.PublishedAt)
}

func TestExtractor_PlainText(t *testing.T) {
	page := &domain.FetchedPage{
		URL:         "https://example.com/notes.txt",
		ContentType: "text/plain",
		Body:        []byte("line one   \r\n\r\n\r\n\r\nline two\n"),
	}

	got, err := New().Extract(context.Background(), page)

	require.NoError(t, err)
	assert.Equal(t, "line one\n\nline two", got.Content)
	assert.Empty(t, got.Title)
}

func TestExtractor_EmptyPage(t *testing.T) {
	_, err := New().Extract(context.Background(), &domain.FetchedPage{Body: []byte("  ")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
