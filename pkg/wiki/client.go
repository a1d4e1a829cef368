package wiki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	// DefaultUserAgent identifies wikisync to the wiki operators.
	DefaultUserAgent = "wikisync/1.0 (+https://github.com/dyluth/wikisync)"

	// anonymousToken is the CSRF token MediaWiki hands out to logged-out sessions.
	anonymousToken = `+\`

	maxResponseBytes = 32 << 20
)

// Options configures a Client.
type Options struct {
	APIURL       string        // Full URL of api.php
	UserAgent    string        // Defaults to DefaultUserAgent
	Timeout      time.Duration // Per-request timeout, 0 = none
	EditInterval time.Duration // Minimum gap between two write requests
	Bot          bool          // Flag edits as bot edits
	HTTPClient   *http.Client  // Optional; a cookie-jar client is built when nil
}

// Client talks to the MediaWiki action API.
// It is safe for concurrent use; write requests are serialized by the pacer.
type Client struct {
	apiURL       string
	userAgent    string
	http         *http.Client
	editInterval time.Duration
	bot          bool

	mu        sync.Mutex
	csrfToken string

	writeMu   sync.Mutex
	lastWrite time.Time
}

// NewClient creates a client for the api.php endpoint in opts.
// Returns an error if the API URL is empty or not an http(s) URL.
func NewClient(opts Options) (*Client, error) {
	if opts.APIURL == "" {
		return nil, fmt.Errorf("api URL cannot be empty")
	}
	u, err := url.Parse(opts.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api URL %q: scheme must be http or https", opts.APIURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar, Timeout: opts.Timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		apiURL:       opts.APIURL,
		userAgent:    userAgent,
		http:         httpClient,
		editInterval: opts.EditInterval,
		bot:          opts.Bot,
	}, nil
}

// Login starts a session for username using the login-token flow.
// Failed logins wrap ErrAuth.
func (c *Client) Login(ctx context.Context, username, password string) error {
	loginToken, err := c.token(ctx, "login")
	if err != nil {
		return fmt.Errorf("failed to get login token: %w", err)
	}

	params := url.Values{
		"action":     {"login"},
		"lgname":     {username},
		"lgpassword": {password},
		"lgtoken":    {loginToken},
	}
	var resp struct {
		Login struct {
			Result string          `json:"result"`
			Reason json.RawMessage `json:"reason"`
		} `json:"login"`
	}
	if err := c.call(ctx, http.MethodPost, params, &resp); err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	if resp.Login.Result != "Success" {
		reason := reasonText(resp.Login.Reason)
		if reason == "" {
			reason = resp.Login.Result
		}
		return fmt.Errorf("%w: login as %s: %s", ErrAuth, username, reason)
	}

	c.resetToken()
	return nil
}

// Logout ends the current session.
func (c *Client) Logout(ctx context.Context) error {
	token, err := c.csrf(ctx)
	if err != nil {
		return err
	}
	params := url.Values{"action": {"logout"}, "token": {token}}
	if err := c.call(ctx, http.MethodPost, params, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	c.resetToken()
	return nil
}

// FetchPage reads the current wikitext of title.
// Transport and API problems are reported in Snapshot.FetchError; only
// authentication failures and context errors are returned.
func (c *Client) FetchPage(ctx context.Context, title string) (Snapshot, error) {
	snap := Snapshot{Title: title}
	params := url.Values{
		"action":  {"query"},
		"prop":    {"revisions"},
		"rvprop":  {"content"},
		"rvslots": {"main"},
		"titles":  {title},
	}
	var resp struct {
		Query struct {
			Pages []struct {
				Title         string `json:"title"`
				Missing       bool   `json:"missing"`
				Invalid       bool   `json:"invalid"`
				InvalidReason string `json:"invalidreason"`
				Revisions     []struct {
					Slots struct {
						Main struct {
							Content string `json:"content"`
						} `json:"main"`
					} `json:"slots"`
				} `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.call(ctx, http.MethodGet, params, &resp); err != nil {
		if ctx.Err() != nil {
			return snap, ctx.Err()
		}
		if IsAuthFailure(err) {
			return snap, err
		}
		snap.FetchError = err.Error()
		return snap, nil
	}

	if len(resp.Query.Pages) == 0 {
		snap.FetchError = "empty response from wiki"
		return snap, nil
	}

	page := resp.Query.Pages[0]
	switch {
	case page.Invalid:
		snap.FetchError = fmt.Sprintf("invalid title: %s", page.InvalidReason)
	case page.Missing:
		// Exists stays false
	case len(page.Revisions) == 0:
		snap.FetchError = "page has no revisions"
	default:
		snap.Exists = true
		snap.Text = page.Revisions[0].Slots.Main.Content
	}
	return snap, nil
}

// SubmitEdits writes each edit in order with the shared summary comment.
// Authentication and context failures abort immediately; other per-page
// failures are collected and returned together after all edits were tried.
func (c *Client) SubmitEdits(ctx context.Context, edits []Edit, comment string) error {
	return c.submit(ctx, edits, comment, nil)
}

// SubmitSectionEdits is SubmitEdits for edits that each target one section.
func (c *Client) SubmitSectionEdits(ctx context.Context, edits []Edit, comment string) error {
	for _, e := range edits {
		if e.Section == nil {
			return fmt.Errorf("section edit for %q has no section", e.Name)
		}
	}
	return c.submit(ctx, edits, comment, nil)
}

// CreatePages writes edits only where the page does not exist yet.
// Pages that already exist are silently left alone.
func (c *Client) CreatePages(ctx context.Context, edits []Edit, comment string) error {
	return c.submit(ctx, edits, comment, url.Values{"createonly": {"1"}})
}

func (c *Client) submit(ctx context.Context, edits []Edit, comment string, extra url.Values) error {
	var errs []error
	for _, e := range edits {
		err := c.edit(ctx, e, comment, extra)
		if err == nil {
			continue
		}
		if ctx.Err() != nil || IsAuthFailure(err) {
			return fmt.Errorf("edit %q: %w", e.Name, err)
		}
		if extra.Get("createonly") != "" && apiCode(err) == "articleexists" {
			continue
		}
		errs = append(errs, fmt.Errorf("edit %q: %w", e.Name, err))
	}
	return errors.Join(errs...)
}

func (c *Client) edit(ctx context.Context, e Edit, comment string, extra url.Values) error {
	params := url.Values{
		"action":  {"edit"},
		"title":   {e.Name},
		"text":    {e.Content},
		"summary": {comment},
	}
	if e.Section != nil {
		params.Set("section", strconv.Itoa(*e.Section))
	}
	for k, v := range extra {
		params[k] = v
	}
	return c.write(ctx, params)
}

// Undo reverts every revision after undoAfter up to and including undo.
func (c *Client) Undo(ctx context.Context, title string, undo, undoAfter int64, comment string) error {
	params := url.Values{
		"action":    {"edit"},
		"title":     {title},
		"undo":      {strconv.FormatInt(undo, 10)},
		"undoafter": {strconv.FormatInt(undoAfter, 10)},
		"summary":   {comment},
	}
	if err := c.write(ctx, params); err != nil {
		return fmt.Errorf("undo on %q: %w", title, err)
	}
	return nil
}

// write sends an action=edit request with a CSRF token, retrying once when
// the cached token has gone stale.
func (c *Client) write(ctx context.Context, params url.Values) error {
	if c.bot {
		params.Set("bot", "1")
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var token string
		token, err = c.csrf(ctx)
		if err != nil {
			return err
		}
		params.Set("token", token)

		if err = c.pace(ctx); err != nil {
			return err
		}

		var resp struct {
			Edit struct {
				Result string `json:"result"`
			} `json:"edit"`
		}
		err = c.call(ctx, http.MethodPost, params, &resp)
		if apiCode(err) == "badtoken" {
			c.resetToken()
			continue
		}
		if err != nil {
			return err
		}
		if resp.Edit.Result != "Success" {
			return fmt.Errorf("edit result %q", resp.Edit.Result)
		}
		return nil
	}
	return err
}

// FetchRevisions returns the newest count revisions of title, newest first.
func (c *Client) FetchRevisions(ctx context.Context, title string, count int) ([]Revision, error) {
	if count < 1 {
		return nil, fmt.Errorf("revision count must be >= 1, got %d", count)
	}
	params := url.Values{
		"action":  {"query"},
		"prop":    {"revisions"},
		"rvprop":  {"ids|comment"},
		"rvlimit": {strconv.Itoa(count)},
		"titles":  {title},
	}
	var resp struct {
		Query struct {
			Pages []struct {
				Missing   bool       `json:"missing"`
				Revisions []Revision `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.call(ctx, http.MethodGet, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch revisions of %q: %w", title, err)
	}
	if len(resp.Query.Pages) == 0 || resp.Query.Pages[0].Missing {
		return nil, fmt.Errorf("page %q does not exist", title)
	}
	return resp.Query.Pages[0].Revisions, nil
}

// CategoryMembers lists every page title in category, following continuation.
// The "Category:" prefix is added when missing.
func (c *Client) CategoryMembers(ctx context.Context, category string) ([]string, error) {
	if !strings.HasPrefix(category, "Category:") {
		category = "Category:" + category
	}
	params := url.Values{
		"action":  {"query"},
		"list":    {"categorymembers"},
		"cmtitle": {category},
		"cmlimit": {"max"},
	}

	var titles []string
	for {
		var resp struct {
			Continue map[string]string `json:"continue"`
			Query    struct {
				CategoryMembers []struct {
					Title string `json:"title"`
				} `json:"categorymembers"`
			} `json:"query"`
		}
		if err := c.call(ctx, http.MethodGet, params, &resp); err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", category, err)
		}
		for _, m := range resp.Query.CategoryMembers {
			titles = append(titles, m.Title)
		}
		if len(resp.Continue) == 0 {
			return titles, nil
		}
		for k, v := range resp.Continue {
			params.Set(k, v)
		}
	}
}

// SectionIDs returns the numbers of the sections of title whose heading is
// exactly heading. Transcluded sections are ignored.
func (c *Client) SectionIDs(ctx context.Context, title, heading string) ([]int, error) {
	params := url.Values{
		"action": {"parse"},
		"page":   {title},
		"prop":   {"sections"},
	}
	var resp struct {
		Parse struct {
			Sections []struct {
				Line  string `json:"line"`
				Index string `json:"index"`
			} `json:"sections"`
		} `json:"parse"`
	}
	if err := c.call(ctx, http.MethodGet, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to read sections of %q: %w", title, err)
	}

	var ids []int
	for _, s := range resp.Parse.Sections {
		if strings.TrimSpace(s.Line) != heading {
			continue
		}
		id, err := strconv.Atoi(s.Index)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// UploadFile uploads data as File:filename. Existing files are overwritten.
func (c *Client) UploadFile(ctx context.Context, filename, comment, text string, data []byte) error {
	token, err := c.csrf(ctx)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := [][2]string{
		{"action", "upload"},
		{"format", "json"},
		{"formatversion", "2"},
		{"filename", filename},
		{"comment", comment},
		{"text", text},
		{"ignorewarnings", "1"},
		{"token", token},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}

	if err := c.pace(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &body)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		Upload struct {
			Result string `json:"result"`
		} `json:"upload"`
	}
	if err := c.send(req, &resp); err != nil {
		return fmt.Errorf("upload of %s: %w", filename, err)
	}
	if resp.Upload.Result != "Success" {
		return fmt.Errorf("upload of %s: result %q", filename, resp.Upload.Result)
	}
	return nil
}

// Download fetches an arbitrary URL with the client's user agent.
// Used to pull game assets before uploading them.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: HTTP %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	return data, nil
}

func (c *Client) token(ctx context.Context, kind string) (string, error) {
	params := url.Values{
		"action": {"query"},
		"meta":   {"tokens"},
		"type":   {kind},
	}
	var resp struct {
		Query struct {
			Tokens map[string]string `json:"tokens"`
		} `json:"query"`
	}
	if err := c.call(ctx, http.MethodGet, params, &resp); err != nil {
		return "", err
	}
	token := resp.Query.Tokens[kind+"token"]
	if token == "" {
		return "", fmt.Errorf("wiki returned no %s token", kind)
	}
	return token, nil
}

func (c *Client) csrf(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.csrfToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	token, err := c.token(ctx, "csrf")
	if err != nil {
		return "", fmt.Errorf("failed to get csrf token: %w", err)
	}
	if token == anonymousToken {
		return "", fmt.Errorf("%w: not logged in", ErrAuth)
	}

	c.mu.Lock()
	c.csrfToken = token
	c.mu.Unlock()
	return token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.csrfToken = ""
	c.mu.Unlock()
}

// pace blocks until EditInterval has passed since the previous write.
func (c *Client) pace(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if !c.lastWrite.IsZero() {
		if wait := c.editInterval - time.Since(c.lastWrite); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	c.lastWrite = time.Now()
	return nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	var (
		req *http.Request
		err error
	)
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, c.apiURL+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.apiURL, strings.NewReader(params.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wiki request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read wiki response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wiki returned HTTP %d", resp.StatusCode)
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode wiki response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode wiki response: %w", err)
	}
	return nil
}

// reasonText renders a login failure reason, which is a plain string on
// older wikis and a {code,text} object on newer ones.
func reasonText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Text string `json:"text"`
		Code string `json:"code"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Text != "" {
			return obj.Text
		}
		return obj.Code
	}
	return string(raw)
}
