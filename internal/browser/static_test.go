package browser

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmate/internal/detect"
	"github.com/abhisek/quizmate/internal/quiz"
)

const checkboxPage = `<html><body>
<div data-testid="part-Submission_CheckboxQuestion">
  <div id="prompt-autoGradableResponseId~q"><div data-testid="cml-viewer"><p>Which are even numbers?</p></div></div>
  <div class="rc-Option"><label><input type="checkbox" name="q" value="a" checked><span class="rc-Option__input-text">1</span></label></div>
  <div class="rc-Option"><label><input type="checkbox" name="q" value="b"><span class="rc-Option__input-text">2</span></label></div>
  <div class="rc-Option"><label><input type="checkbox" name="q" value="c"><span class="rc-Option__input-text">4</span></label></div>
</div>
</body></html>`

func detectStatic(t *testing.T, src string) (*StaticPage, quiz.Question) {
	t.Helper()
	p, err := NewStaticPage(strings.NewReader(src), "https://www.coursera.org/learn/math/quiz/q1/x")
	require.NoError(t, err)
	doc, err := p.Document(context.Background())
	require.NoError(t, err)
	qs := detect.New(detect.DefaultConfig(), nil).Detect(doc)
	require.Len(t, qs, 1)
	return p, qs[0]
}

func TestStaticPage_SelectMultiple(t *testing.T) {
	p, q := detectStatic(t, checkboxPage)
	require.Equal(t, quiz.Multiple, q.Type)

	require.NoError(t, p.Select(context.Background(), q, []int{1, 2}))

	doc, _ := p.Document(context.Background())
	var checked []string
	doc.Find("input[checked]").Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("value")
		checked = append(checked, v)
	})
	assert.Equal(t, []string{"b", "c"}, checked)

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	assert.Contains(t, buf.String(), `value="b" checked=""`)
}

func TestStaticPage_SelectSingle(t *testing.T) {
	src := strings.ReplaceAll(checkboxPage, `type="checkbox"`, `type="radio"`)
	p, q := detectStatic(t, src)
	require.Equal(t, quiz.Single, q.Type)

	require.NoError(t, p.Select(context.Background(), q, []int{2}))

	doc, _ := p.Document(context.Background())
	assert.Equal(t, 1, doc.Find("input[checked]").Length())
	_, ok := doc.Find(`input[value="c"]`).Attr("checked")
	assert.True(t, ok)
}

func TestStaticPage_URL(t *testing.T) {
	p, err := NewStaticPage(strings.NewReader("<p>x</p>"), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", p.URL())
}

func TestSetCheckedAria(t *testing.T) {
	p, err := NewStaticPage(strings.NewReader(`<div role="checkbox" aria-checked="false">x</div>`), "")
	require.NoError(t, err)
	n := p.doc.Find(`[role="checkbox"]`).Get(0)

	setChecked(n, true)
	v, _ := p.doc.Find(`[role="checkbox"]`).Attr("aria-checked")
	assert.Equal(t, "true", v)

	setChecked(n, false)
	v, _ = p.doc.Find(`[role="checkbox"]`).Attr("aria-checked")
	assert.Equal(t, "false", v)
}
