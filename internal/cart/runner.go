package cart

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"groceryagent/internal/grocery"
)

// LLM is the text-only reasoning the runner needs. No screenshots are ever
// sent: the model only sees DOM text, which keeps token cost minimal.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RunnerConfig configures the browser session for the cart run.
type RunnerConfig struct {
	Site        string
	Email       string
	Password    string
	BrowserPath string // optional explicit browser executable
	Headless    bool
	StepTimeout time.Duration
}

// Runner launches browser sessions that work through a grocery list: login
// once, then search each item, pick a product with one LLM call and add it to
// the cart. The Runner itself holds no per-run state; every Start returns an
// independent session with its own browser, so overlapping runs never touch
// each other.
type Runner struct {
	cfg RunnerConfig
	llm LLM
	log *zap.Logger
}

// NewRunner creates a Runner. No browser is started until Start.
func NewRunner(cfg RunnerConfig, llm LLM, log *zap.Logger) *Runner {
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 20 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, llm: llm, log: log}
}

// Start launches a fresh browser and connects to it. This is the only failure
// the bridge reports to callers; everything after runs unattended inside the
// returned session.
func (r *Runner) Start() (Session, error) {
	l := launcher.New().Headless(r.cfg.Headless)
	if r.cfg.BrowserPath != "" {
		l = l.Bin(r.cfg.BrowserPath)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	return &session{cfg: r.cfg, llm: r.llm, log: r.log, browser: browser}, nil
}

// session is one cart run in one browser. Owned by exactly one goroutine.
type session struct {
	cfg     RunnerConfig
	llm     LLM
	log     *zap.Logger
	browser *rod.Browser
}

func (s *session) close() {
	if err := s.browser.Close(); err != nil {
		s.log.Warn("browser close failed", zap.Error(err))
	}
}

// Run works through the grocery list and closes the browser when done.
// Failures on individual items are logged and never abort the run: optional
// items are skipped, required ones are left for the user to check manually.
func (s *session) Run(ctx context.Context, items []grocery.Item) {
	defer s.close()

	s.log.Info("cart run starting", zap.Int("items", len(items)), zap.String("site", s.cfg.Site))
	for i, item := range items {
		s.log.Info("grocery item",
			zap.Int("num", i+1),
			zap.String("name", item.Name),
			zap.String("amount", item.AmountStr),
			zap.Bool("optional", item.Optional))
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{URL: s.cfg.Site})
	if err != nil {
		s.log.Error("open site failed", zap.Error(err))
		return
	}
	if err := page.WaitLoad(); err != nil {
		s.log.Warn("site load wait failed", zap.Error(err))
	}

	s.log.Info("login step", zap.String("task", BuildLoginTask(s.cfg.Site, s.cfg.Email, "********")))
	if err := s.login(page); err != nil {
		s.log.Warn("login failed, continuing logged out", zap.Error(err))
	}

	for i, item := range items {
		if err := s.addItem(ctx, page, item, i+1, len(items)); err != nil {
			if item.Optional {
				s.log.Info("optional item skipped", zap.String("name", item.Name), zap.Error(err))
			} else {
				s.log.Warn("required item not added, check manually", zap.String("name", item.Name), zap.Error(err))
			}
		}
	}

	s.log.Info("cart run complete", zap.Int("items", len(items)))
}

// login is best effort: without credentials the run proceeds logged out.
func (s *session) login(page *rod.Page) error {
	if s.cfg.Email == "" || s.cfg.Password == "" {
		return nil
	}

	loginLink, err := page.Timeout(s.cfg.StepTimeout).ElementR("a, button", "/sign in|log in|iniciar|ingresar/i")
	if err != nil {
		return fmt.Errorf("login control not found: %w", err)
	}
	if err := loginLink.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click login: %w", err)
	}

	email, err := page.Timeout(s.cfg.StepTimeout).Element(`input[type="email"], input[name="email"]`)
	if err != nil {
		return fmt.Errorf("email field not found: %w", err)
	}
	if err := email.Input(s.cfg.Email); err != nil {
		return fmt.Errorf("type email: %w", err)
	}

	password, err := page.Timeout(s.cfg.StepTimeout).Element(`input[type="password"]`)
	if err != nil {
		return fmt.Errorf("password field not found: %w", err)
	}
	if err := password.Input(s.cfg.Password); err != nil {
		return fmt.Errorf("type password: %w", err)
	}
	if err := password.Type(input.Enter); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait after login: %w", err)
	}
	return nil
}

const maxCandidates = 12

func (s *session) addItem(ctx context.Context, page *rod.Page, item grocery.Item, num, total int) error {
	task := BuildItemTask(item, num, total)
	s.log.Info("item step", zap.String("task", task))

	search, err := page.Timeout(s.cfg.StepTimeout).Element(`input[type="search"], input[name="q"], input[placeholder*="search" i], input[placeholder*="busca" i]`)
	if err != nil {
		return fmt.Errorf("search box not found: %w", err)
	}
	if err := search.SelectAllText(); err == nil {
		_ = search.Input("")
	}
	if err := search.Input(item.Name); err != nil {
		return fmt.Errorf("type search query: %w", err)
	}
	if err := search.Type(input.Enter); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for results: %w", err)
	}

	cards, err := page.Timeout(s.cfg.StepTimeout).Elements(`[class*="product" i], [data-testid*="product" i], article`)
	if err != nil || len(cards) == 0 {
		return fmt.Errorf("no search results for %q", item.Name)
	}

	var candidates []string
	var candidateEls []*rod.Element
	for _, card := range cards {
		text, err := card.Text()
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		candidates = append(candidates, strings.Join(strings.Fields(text), " "))
		candidateEls = append(candidateEls, card)
		if len(candidates) == maxCandidates {
			break
		}
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no readable results for %q", item.Name)
	}

	raw, err := s.llm.Generate(ctx, BuildSelectionPrompt(task, candidates))
	if err != nil {
		return fmt.Errorf("product selection failed: %w", err)
	}
	choice, err := ParseChoice(raw, len(candidates))
	if err != nil {
		return err
	}
	if choice < 0 {
		return fmt.Errorf("no acceptable product for %q", item.Name)
	}

	addBtn, err := candidateEls[choice].Timeout(s.cfg.StepTimeout).ElementR("button", "/add|agregar|añadir|comprar/i")
	if err != nil {
		return fmt.Errorf("add-to-cart button not found: %w", err)
	}
	if err := addBtn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click add to cart: %w", err)
	}

	s.log.Info("item added", zap.String("name", item.Name), zap.String("product", candidates[choice]))
	return nil
}

var choiceRe = regexp.MustCompile(`-?\d+`)

// ParseChoice extracts the candidate index from an LLM selection response.
// -1 means the model rejected every candidate.
func ParseChoice(raw string, n int) (int, error) {
	m := choiceRe.FindString(raw)
	if m == "" {
		return 0, fmt.Errorf("no candidate number in response: %q", raw)
	}
	idx, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("bad candidate number %q", m)
	}
	if idx >= n {
		return 0, fmt.Errorf("candidate %d out of range (have %d)", idx, n)
	}
	if idx < 0 {
		return -1, nil
	}
	return idx, nil
}
