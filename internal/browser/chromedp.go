// internal/browser/chromedp.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/promptharvest/promptharvest/internal/config"
)

// ChromePage implements PageDriver using chromedp.
type ChromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	config *config.BrowserConfig
	stats  *Stats
}

// NewChromePage starts a Chrome instance and returns a page driver.
func NewChromePage(cfg *config.BrowserConfig) (*ChromePage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("browser configuration is required")
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // Required for Docker environments
	}

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	page := &ChromePage{
		ctx: ctx,
		cancel: func() {
			ctxCancel()
			allocCancel()
		},
		config: cfg,
		stats:  &Stats{},
	}

	if err := chromedp.Run(ctx, chromedp.EmulateViewport(int64(cfg.ViewportWidth), int64(cfg.ViewportHeight))); err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	return page, nil
}

// run executes chromedp actions on the browser context while honoring the
// caller's deadline. Chromedp actions must run on the browser context
// chain, so the caller context only contributes its deadline.
func (c *ChromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := c.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(c.ctx, deadline)
		defer cancel()
	}

	err := chromedp.Run(runCtx, actions...)
	if err != nil {
		c.stats.Errors++
		if runCtx.Err() == context.DeadlineExceeded {
			c.stats.TimeoutsOccurred++
		}
	}
	return err
}

// Navigate loads a URL and waits for the page body.
func (c *ChromePage) Navigate(ctx context.Context, url string) error {
	tasks := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if c.config.WaitDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(c.config.WaitDelay))
	}

	if err := c.run(ctx, tasks...); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	c.stats.PagesLoaded++
	return nil
}

// QueryByText returns elements whose rendered content contains the literal.
// The search also matches attribute values; callers filter on snapshots.
func (c *ChromePage) QueryByText(ctx context.Context, text string) ([]ElementHandle, error) {
	var nodes []*cdp.Node
	err := c.run(ctx, chromedp.Nodes(text, &nodes, chromedp.BySearch, chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}
	return c.wrapNodes(nodes), nil
}

// QuerySelectorAll returns elements matching a CSS selector.
func (c *ChromePage) QuerySelectorAll(ctx context.Context, selector string) ([]ElementHandle, error) {
	var nodes []*cdp.Node
	err := c.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("selector query failed: %w", err)
	}
	return c.wrapNodes(nodes), nil
}

// Markup returns the full page HTML.
func (c *ChromePage) Markup(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to get page markup: %w", err)
	}
	return html, nil
}

// Click clicks the first visible element matching the selector.
func (c *ChromePage) Click(ctx context.Context, selector string) error {
	if err := c.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// PressEscape sends an Escape key event to the page.
func (c *ChromePage) PressEscape(ctx context.Context) error {
	if err := c.run(ctx, chromedp.KeyEvent(kb.Escape)); err != nil {
		return fmt.Errorf("escape key failed: %w", err)
	}
	return nil
}

// GetStats returns driver statistics.
func (c *ChromePage) GetStats() *Stats {
	return c.stats
}

// Close closes the browser.
func (c *ChromePage) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *ChromePage) wrapNodes(nodes []*cdp.Node) []ElementHandle {
	handles := make([]ElementHandle, 0, len(nodes))
	for _, node := range nodes {
		handles = append(handles, &chromeElement{page: c, node: node})
	}
	return handles
}

// chromeElement implements ElementHandle over a cdp node. Property reads
// resolve the node to a remote object and evaluate a function on it, so a
// node that detached since the query fails the individual call only.
type chromeElement struct {
	page *ChromePage
	node *cdp.Node
}

// eval runs a JavaScript function with the element bound to `this` and
// unmarshals the by-value result into out (out may be nil).
func (e *chromeElement) eval(ctx context.Context, fn string, out interface{}) error {
	return e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(e.node.BackendNodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolve node: %w", err)
		}

		res, exp, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("call function: %w", err)
		}
		if exp != nil {
			return fmt.Errorf("script exception: %s", exp.Text)
		}
		if out == nil || res == nil || res.Value == nil {
			return nil
		}
		return json.Unmarshal(res.Value, out)
	}))
}

func (e *chromeElement) TextContent(ctx context.Context) (string, error) {
	var text string
	err := e.eval(ctx, `function() {
		return this.innerText !== undefined ? this.innerText : (this.textContent || "");
	}`, &text)
	return text, err
}

func (e *chromeElement) InnerHTML(ctx context.Context) (string, error) {
	var html string
	err := e.eval(ctx, `function() { return this.innerHTML; }`, &html)
	return html, err
}

func (e *chromeElement) BoundingBox(ctx context.Context) (*Rect, error) {
	var rect Rect
	err := e.eval(ctx, `function() {
		const r = this.getBoundingClientRect();
		return {x: r.x, y: r.y, width: r.width, height: r.height};
	}`, &rect)
	if err != nil {
		return nil, err
	}
	return &rect, nil
}

func (e *chromeElement) IsVisible(ctx context.Context) (bool, error) {
	var visible bool
	err := e.eval(ctx, `function() {
		const style = window.getComputedStyle(this);
		if (style.display === "none" || style.visibility === "hidden" || style.opacity === "0") {
			return false;
		}
		const r = this.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	}`, &visible)
	return visible, err
}

func (e *chromeElement) TagName(ctx context.Context) (string, error) {
	var tag string
	err := e.eval(ctx, `function() { return this.tagName ? this.tagName.toLowerCase() : ""; }`, &tag)
	return tag, err
}

func (e *chromeElement) Attributes(ctx context.Context) (map[string]string, error) {
	attrs := make(map[string]string)
	err := e.eval(ctx, `function() {
		const m = {};
		for (const a of this.attributes) { m[a.name] = a.value; }
		return m;
	}`, &attrs)
	return attrs, err
}

func (e *chromeElement) GetAttribute(ctx context.Context, name string) (string, bool, error) {
	var value *string
	fn := fmt.Sprintf(`function() { return this.getAttribute(%q); }`, name)
	if err := e.eval(ctx, fn, &value); err != nil {
		return "", false, err
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (e *chromeElement) Parent(ctx context.Context) (ElementHandle, error) {
	var parent *cdp.Node
	err := e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(e.node.BackendNodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolve node: %w", err)
		}

		res, exp, err := runtime.CallFunctionOn(`function() { return this.parentElement; }`).
			WithObjectID(obj.ObjectID).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("call function: %w", err)
		}
		if exp != nil {
			return fmt.Errorf("script exception: %s", exp.Text)
		}
		if res == nil || res.ObjectID == "" {
			return nil // no parent
		}

		nodeID, err := dom.RequestNode(res.ObjectID).Do(ctx)
		if err != nil {
			return fmt.Errorf("request node: %w", err)
		}
		node, err := dom.DescribeNode().WithNodeID(nodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("describe node: %w", err)
		}
		parent = node
		return nil
	}))
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, nil
	}
	return &chromeElement{page: e.page, node: parent}, nil
}

func (e *chromeElement) QuerySelectorAll(ctx context.Context, selector string) ([]ElementHandle, error) {
	var nodes []*cdp.Node
	err := e.page.run(ctx, chromedp.Nodes(selector, &nodes,
		chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("child query failed: %w", err)
	}
	return e.page.wrapNodes(nodes), nil
}
