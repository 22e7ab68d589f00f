package xivapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"xivmarket/internal/cache"
	"xivmarket/internal/errx"
	"xivmarket/internal/models"
)

// maxIngredients is the number of ingredient columns on a recipe row.
const maxIngredients = 10

type XIVAPIService struct {
	rootURL string
	apiKey  string
	client  *resty.Client
	limiter *rate.Limiter
	cache   cache.Cache
}

type searchResult struct {
	ID        int    `json:"ID"`
	Icon      string `json:"Icon"`
	Name      string `json:"Name"`
	URL       string `json:"Url"`
	URLType   string `json:"UrlType"`
	LevelItem int    `json:"LevelItem"`
}

type searchResponse struct {
	Results []searchResult `json:"Results"`
}

type recipeRow struct {
	AmountResult int `json:"AmountResult"`
	ClassJob     struct {
		NameEnglish  string `json:"NameEnglish"`
		Abbreviation string `json:"Abbreviation"`
		ID           int    `json:"ID"`
		Icon         string `json:"Icon"`
	} `json:"ClassJob"`
	RecipeLevelTable struct {
		ClassJobLevel int `json:"ClassJobLevel"`
	} `json:"RecipeLevelTable"`
}

// Query is a filtered item search sorted by item level, highest first.
type Query struct {
	Filters []string
	Limit   int
}

// Equipment is one result of a filtered search
type Equipment struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	LevelItem int    `json:"level_item"`
}

func NewXIVAPIService(rootURL, apiKey string, timeout time.Duration, perSecond float64, c cache.Cache) *XIVAPIService {
	rootURL = strings.TrimRight(rootURL, "/")
	client := resty.New()
	client.SetBaseURL(rootURL)
	client.SetTimeout(timeout)

	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond))
	}
	if c == nil {
		c = cache.Nop{}
	}

	return &XIVAPIService{
		rootURL: rootURL,
		apiKey:  apiKey,
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		cache:   c,
	}
}

// ItemByName finds the item whose name matches exactly, ignoring case.
func (s *XIVAPIService) ItemByName(ctx context.Context, name string) (models.Item, error) {
	name = strings.TrimSpace(name)
	key := "xivapi:item:" + strings.ToLower(name)
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (models.Item, error) {
		var resp searchResponse
		if err := s.getJSON(ctx, "/search", map[string]string{"string": name, "indexes": "item"}, &resp); err != nil {
			return models.Item{}, err
		}
		for _, r := range resp.Results {
			if strings.EqualFold(r.Name, name) {
				return s.item(r), nil
			}
		}
		return models.Item{}, errx.NotFound("item %q", name)
	})
}

// ItemName returns the English name of an item ID.
func (s *XIVAPIService) ItemName(ctx context.Context, id int) (string, error) {
	key := "xivapi:itemname:" + strconv.Itoa(id)
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (string, error) {
		var row struct {
			Name string `json:"Name"`
		}
		if err := s.getJSON(ctx, "/item/"+strconv.Itoa(id), map[string]string{"columns": "Name"}, &row); err != nil {
			return "", err
		}
		if row.Name == "" {
			return "", errx.NotFound("item %d", id)
		}
		return row.Name, nil
	})
}

// ItemByID resolves an ID to its full search record.
func (s *XIVAPIService) ItemByID(ctx context.Context, id int) (models.Item, error) {
	name, err := s.ItemName(ctx, id)
	if err != nil {
		return models.Item{}, err
	}
	return s.ItemByName(ctx, name)
}

// Recipe looks a recipe up by the name of the item it produces.
func (s *XIVAPIService) Recipe(ctx context.Context, name string) (models.Recipe, error) {
	name = strings.TrimSpace(name)
	key := "xivapi:recipe:" + strings.ToLower(name)
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (models.Recipe, error) {
		return s.fetchRecipe(ctx, name)
	})
}

func (s *XIVAPIService) fetchRecipe(ctx context.Context, name string) (models.Recipe, error) {
	var resp searchResponse
	if err := s.getJSON(ctx, "/search", map[string]string{"string": name, "indexes": "Recipe"}, &resp); err != nil {
		return models.Recipe{}, err
	}
	var recipeURL string
	for _, r := range resp.Results {
		if strings.EqualFold(r.Name, name) {
			recipeURL = r.URL
			break
		}
	}
	if recipeURL == "" {
		return models.Recipe{}, errx.NotFound("recipe for %s", name)
	}

	columns := make([]string, 0, 2*maxIngredients+6)
	for n := 0; n < maxIngredients; n++ {
		columns = append(columns, fmt.Sprintf("AmountIngredient%d", n))
	}
	for n := 0; n < maxIngredients; n++ {
		columns = append(columns, fmt.Sprintf("ItemIngredient%dTargetID", n))
	}
	columns = append(columns, "AmountResult", "ClassJob.NameEnglish", "ClassJob.Abbreviation",
		"ClassJob.ID", "ClassJob.Icon", "RecipeLevelTable.ClassJobLevel")

	var raw map[string]json.RawMessage
	if err := s.getJSON(ctx, recipeURL, map[string]string{"columns": strings.Join(columns, ",")}, &raw); err != nil {
		return models.Recipe{}, err
	}
	var row recipeRow
	if err := remarshal(raw, &row); err != nil {
		return models.Recipe{}, errx.InvalidResponse(recipeURL, err)
	}

	recipe := models.Recipe{
		Name:          name,
		Level:         row.RecipeLevelTable.ClassJobLevel,
		CraftingClass: row.ClassJob.NameEnglish,
	}
	for n := 0; n < maxIngredients; n++ {
		itemID := intField(raw, fmt.Sprintf("ItemIngredient%dTargetID", n))
		if itemID == 0 {
			continue
		}
		ingredient, err := s.ItemName(ctx, itemID)
		if err != nil {
			return models.Recipe{}, err
		}
		recipe.IngredientNames = append(recipe.IngredientNames, ingredient)
		recipe.Amounts = append(recipe.Amounts, intField(raw, fmt.Sprintf("AmountIngredient%d", n)))
	}
	return recipe, nil
}

// Search runs a filtered item search sorted by item level descending.
func (s *XIVAPIService) Search(ctx context.Context, q Query) ([]Equipment, error) {
	params := map[string]string{
		"filters":    strings.Join(q.Filters, ","),
		"sort_field": "LevelItem",
		"sort_order": "desc",
		"columns":    "ID,Name,LevelItem",
	}
	if q.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Limit)
	}
	var resp searchResponse
	if err := s.getJSON(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}
	out := make([]Equipment, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, Equipment{ID: r.ID, Name: r.Name, LevelItem: r.LevelItem})
	}
	return out, nil
}

func (s *XIVAPIService) item(r searchResult) models.Item {
	return models.Item{
		ID:      r.ID,
		Name:    r.Name,
		IconURL: s.rootURL + r.Icon,
		URL:     s.rootURL + r.URL,
		URLType: r.URLType,
	}
}

func (s *XIVAPIService) getJSON(ctx context.Context, path string, params map[string]string, dst any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req := s.client.R().SetContext(ctx).SetQueryParams(params)
	if s.apiKey != "" {
		req.SetQueryParam("private_key", s.apiKey)
	}
	resp, err := req.Get(path)
	if err != nil {
		return errx.InvalidResponse(path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return errx.InvalidResponse(path, fmt.Errorf("status %d", resp.StatusCode()))
	}
	body := strings.TrimSpace(string(resp.Body()))
	if body == "" || body == "{}" || body == "null" {
		return errx.InvalidResponse(path, nil)
	}
	if err := json.Unmarshal(resp.Body(), dst); err != nil {
		return errx.InvalidResponse(path, err)
	}
	return nil
}

func remarshal(raw map[string]json.RawMessage, dst any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func intField(raw map[string]json.RawMessage, key string) int {
	v, ok := raw[key]
	if !ok {
		return 0
	}
	var n int
	if err := json.Unmarshal(v, &n); err != nil {
		return 0
	}
	return n
}
