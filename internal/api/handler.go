package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"groceryagent/internal/cart"
	"groceryagent/internal/fetch"
	"groceryagent/internal/grocery"
	"groceryagent/internal/recipe"
)

// RecipeParser defines the interface for turning raw recipe text into a Recipe.
type RecipeParser interface {
	ParseRecipe(ctx context.Context, text string) (*recipe.Recipe, error)
}

// PageFetcher defines the interface for pulling recipe text out of a web page.
type PageFetcher interface {
	Text(ctx context.Context, url string) (string, error)
	ImageURL(ctx context.Context, url string) (string, error)
}

// RecipeStore defines the interface for recipe data operations.
type RecipeStore interface {
	Save(ctx context.Context, r *recipe.Recipe) (int64, error)
	Get(ctx context.Context, id int64) (*recipe.Recipe, error)
	List(ctx context.Context) ([]recipe.Summary, error)
	Update(ctx context.Context, r *recipe.Recipe) error
	Delete(ctx context.Context, id int64) error
}

// ListBuilder defines the interface for building an aggregated grocery list.
type ListBuilder interface {
	Build(ctx context.Context, req grocery.Request) ([]grocery.Item, error)
}

// CartDispatcher defines the interface for handing a confirmed list to the
// cart automation.
type CartDispatcher interface {
	Dispatch(items []grocery.Item) error
}

// Handler handles HTTP requests.
type Handler struct {
	Parser  RecipeParser
	Fetcher PageFetcher
	Store   RecipeStore
	Builder ListBuilder
	Cart    CartDispatcher
	Log     *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(parser RecipeParser, fetcher PageFetcher, store RecipeStore, builder ListBuilder, cart CartDispatcher, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Parser: parser, Fetcher: fetcher, Store: store, Builder: builder, Cart: cart, Log: log}
}

type createRecipeRequest struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// CreateRecipe parses recipe text (or a recipe page URL) with the LLM and
// saves the result.
func (h *Handler) CreateRecipe(c *gin.Context) {
	var req createRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("bad request body: %s", err.Error()))
		return
	}
	if strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.URL) == "" {
		c.String(http.StatusBadRequest, "either 'text' or 'url' is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	text := req.Text
	imageURL := ""
	if strings.TrimSpace(text) == "" {
		var err error
		text, err = h.Fetcher.Text(ctx, req.URL)
		if err != nil {
			if errors.Is(err, fetch.ErrUnreachable) {
				c.String(http.StatusBadGateway, fmt.Sprintf("could not fetch recipe page: %s", err.Error()))
				return
			}
			c.String(http.StatusInternalServerError, fmt.Sprintf("fetch err: %s", err.Error()))
			return
		}
		// Page image is a nice-to-have; ignore failures.
		if img, err := h.Fetcher.ImageURL(ctx, req.URL); err == nil {
			imageURL = img
		}
	}

	parsed, err := h.Parser.ParseRecipe(ctx, text)
	if err != nil {
		if errors.Is(err, recipe.ErrParse) {
			c.String(http.StatusUnprocessableEntity, fmt.Sprintf("recipe could not be parsed: %s", err.Error()))
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			c.String(http.StatusRequestTimeout, "LLM call timed out")
			return
		}
		c.String(http.StatusInternalServerError, fmt.Sprintf("llm err: %s", err.Error()))
		return
	}
	parsed.SourceURL = req.URL
	if parsed.ImageURL == "" {
		parsed.ImageURL = imageURL
	}

	id, err := h.Store.Save(ctx, parsed)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}
	parsed.ID = id

	h.Log.Info("recipe saved", zap.Int64("id", id), zap.String("title", parsed.Title))
	c.JSON(http.StatusOK, parsed)
}

// ListRecipes returns summaries of all stored recipes.
func (h *Handler) ListRecipes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	recipes, err := h.Store.List(ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// GetRecipe returns one stored recipe by id.
func (h *Handler) GetRecipe(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid recipe id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	r, err := h.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			c.String(http.StatusNotFound, "Recipe not found")
			return
		}
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}
	c.JSON(http.StatusOK, r)
}

// UpdateRecipe replaces a stored recipe after manual edits.
func (h *Handler) UpdateRecipe(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid recipe id")
		return
	}

	var r recipe.Recipe
	if err := c.ShouldBindJSON(&r); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("bad request body: %s", err.Error()))
		return
	}
	r.ID = id
	if err := recipe.Validate(&r); err != nil {
		c.String(http.StatusUnprocessableEntity, fmt.Sprintf("invalid recipe: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.Update(ctx, &r); err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			c.String(http.StatusNotFound, "Recipe not found")
			return
		}
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}
	c.JSON(http.StatusOK, &r)
}

// DeleteRecipe removes a stored recipe.
func (h *Handler) DeleteRecipe(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid recipe id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			c.String(http.StatusNotFound, "Recipe not found")
			return
		}
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// GroceryList builds the aggregated grocery list for the selected recipes.
// Query: ids=1,2,3  portion_<id>=n  selected=0,3,5
func (h *Handler) GroceryList(c *gin.Context) {
	req, err := parseListQuery(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	items, err := h.Builder.Build(ctx, req)
	if err != nil {
		h.listError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type confirmRequest struct {
	grocery.Request
	Items []grocery.Item `json:"items"`
}

// ConfirmList hands a grocery list to the cart automation. The client sends
// either the edited item list or the same selection used for GroceryList.
func (h *Handler) ConfirmList(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("bad request body: %s", err.Error()))
		return
	}

	items := req.Items
	if len(items) == 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
		defer cancel()

		var err error
		items, err = h.Builder.Build(ctx, req.Request)
		if err != nil {
			h.listError(c, err)
			return
		}
	}
	if len(items) == 0 {
		c.String(http.StatusBadRequest, "grocery list is empty")
		return
	}

	if err := h.Cart.Dispatch(items); err != nil {
		if errors.Is(err, cart.ErrLaunch) {
			c.String(http.StatusBadGateway, fmt.Sprintf("cart agent failed to start: %s", err.Error()))
			return
		}
		c.String(http.StatusInternalServerError, fmt.Sprintf("cart dispatch err: %s", err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"launched": true, "items": items})
}

func (h *Handler) listError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, grocery.ErrInvalidRequest):
		c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, recipe.ErrNotFound):
		c.String(http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		c.String(http.StatusRequestTimeout, "grocery list build timed out")
	default:
		c.String(http.StatusInternalServerError, fmt.Sprintf("grocery list err: %s", err.Error()))
	}
}

func parseListQuery(c *gin.Context) (grocery.Request, error) {
	var req grocery.Request

	idsParam := strings.TrimSpace(c.Query("ids"))
	if idsParam == "" {
		return req, fmt.Errorf("query parameter 'ids' is required")
	}
	for _, part := range strings.Split(idsParam, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid recipe id %q", part)
		}
		req.RecipeIDs = append(req.RecipeIDs, id)
	}

	for _, id := range req.RecipeIDs {
		if v := c.Query(fmt.Sprintf("portion_%d", id)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return req, fmt.Errorf("invalid portion override for recipe %d: %q", id, v)
			}
			if req.Portions == nil {
				req.Portions = make(map[int64]int)
			}
			req.Portions[id] = n
		}
	}

	if sel := strings.TrimSpace(c.Query("selected")); sel != "" {
		for _, part := range strings.Split(sel, ",") {
			idx, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return req, fmt.Errorf("invalid selected index %q", part)
			}
			req.Selected = append(req.Selected, idx)
		}
	}

	return req, nil
}
