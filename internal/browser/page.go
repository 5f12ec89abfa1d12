package browser

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/abhisek/quizmate/internal/logger"
	"github.com/abhisek/quizmate/internal/quiz"
)

const mutationBinding = "__quizmate_mutation"

const outerHTMLJS = `() => document.documentElement.outerHTML`

// setCheckedJS sets an option's state and fires the events the host page
// listens for. Native inputs get checked plus change and click events;
// ARIA widgets are clicked.
const setCheckedJS = `(sel, want) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	if (el instanceof HTMLInputElement) {
		if (el.checked !== want) {
			el.checked = want;
			el.dispatchEvent(new Event('change', {bubbles: true}));
			el.dispatchEvent(new Event('click', {bubbles: true}));
		}
		return true;
	}
	if ((el.getAttribute('aria-checked') === 'true') !== want) el.click();
	return true;
}`

const observeJS = `() => {
	if (window.__quizmateObserver) return;
	window.__quizmateObserver = new MutationObserver(() => {
		try { window.` + mutationBinding + `('1'); } catch (e) {}
	});
	window.__quizmateObserver.observe(document.body, {childList: true, subtree: true});
}`

// Page is a live Chrome tab.
type Page struct {
	rod *rod.Page
	url string
	log *logger.Logger
}

// URL returns the tab's current location, falling back to the URL it was
// opened with.
func (p *Page) URL() string {
	if info, err := p.rod.Info(); err == nil && info.URL != "" {
		return info.URL
	}
	return p.url
}

// Document snapshots the current DOM.
func (p *Page) Document(ctx context.Context) (*goquery.Document, error) {
	res, err := p.rod.Context(ctx).Eval(outerHTMLJS)
	if err != nil {
		return nil, fmt.Errorf("browser: get DOM: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(res.Value.Str()))
}

// Select checks the options at indices. For multiple-answer questions the
// remaining options are unchecked.
func (p *Page) Select(ctx context.Context, q quiz.Question, indices []int) error {
	for i, o := range q.Options {
		want := slices.Contains(indices, i)
		if !want && q.Type != quiz.Multiple {
			continue
		}
		if o.Selector == "" {
			return fmt.Errorf("browser: option %d has no selector", i)
		}
		res, err := p.rod.Context(ctx).Eval(setCheckedJS, o.Selector, want)
		if err != nil {
			return fmt.Errorf("browser: select option %d: %w", i, err)
		}
		if !res.Value.Bool() {
			return fmt.Errorf("browser: option %d not found at %q", i, o.Selector)
		}
	}
	return nil
}

// Mutations injects a MutationObserver and reports each mutation batch on
// the returned channel. Batches arriving while one is pending are merged.
// The channel closes when ctx is done.
func (p *Page) Mutations(ctx context.Context) (<-chan struct{}, error) {
	if err := (proto.RuntimeAddBinding{Name: mutationBinding}).Call(p.rod); err != nil {
		return nil, fmt.Errorf("browser: add binding: %w", err)
	}

	out := make(chan struct{}, 1)
	wait := p.rod.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != mutationBinding {
			return
		}
		select {
		case out <- struct{}{}:
		default:
		}
	})
	go func() {
		wait()
		close(out)
	}()

	if _, err := p.rod.Context(ctx).Eval(observeJS); err != nil {
		return nil, fmt.Errorf("browser: inject observer: %w", err)
	}
	p.log.Debug("browser: mutation observer injected", "url", p.url)
	return out, nil
}

// Close closes the tab.
func (p *Page) Close() error {
	return p.rod.Close()
}
